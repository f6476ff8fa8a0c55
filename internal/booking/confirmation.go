package booking

import (
	"crypto/rand"
	"fmt"
)

// 确认号字符表：去掉 0/O、1/I 等易混淆字符，便于电话与柜台核对。
const confirmationAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	confirmationPrefix = "RNT"
	confirmationDigits = 7
)

// newConfirmationNumber 生成一个候选确认号，例如 RNT7K2M9QX。
// 唯一性由调用方对存储层做查重重试保证。
func newConfirmationNumber() (string, error) {
	buf := make([]byte, confirmationDigits)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	out := make([]byte, confirmationDigits)
	for i, b := range buf {
		out[i] = confirmationAlphabet[int(b)%len(confirmationAlphabet)]
	}
	return confirmationPrefix + string(out), nil
}
