package credential

import (
	"crypto/rand"
	"fmt"
	"math/big"

	derrors "civid/pkg/domain-errors"
)

// Credential numbers are nine base digits plus two mod-11 check digits,
// rendered as "#########-##". The first check digit weighs the base digits
// 10 down to 2; the second weighs base plus first digit 11 down to 2. A
// remainder below 2 yields 0, otherwise 11 minus the remainder.

// CheckDigits computes the two check digits for a nine-digit base.
func CheckDigits(base string) (string, error) {
	if len(base) != 9 {
		return "", derrors.Newf(derrors.CodeInvalidInput, "credential base must be 9 digits, got %d", len(base))
	}
	digits := make([]int, 0, 11)
	for _, r := range base {
		if r < '0' || r > '9' {
			return "", derrors.New(derrors.CodeInvalidInput, "credential base must be numeric")
		}
		digits = append(digits, int(r-'0'))
	}

	first := checkDigit(digits, 10)
	digits = append(digits, first)
	second := checkDigit(digits, 11)

	return fmt.Sprintf("%d%d", first, second), nil
}

func checkDigit(digits []int, topWeight int) int {
	sum := 0
	for i, d := range digits {
		sum += d * (topWeight - i)
	}
	r := sum % 11
	if r < 2 {
		return 0
	}
	return 11 - r
}

// NewNumber draws a random nine-digit base and appends its check digits.
func NewNumber() (string, error) {
	max := big.NewInt(1_000_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("draw credential base: %w", err)
	}
	base := fmt.Sprintf("%09d", n)
	check, err := CheckDigits(base)
	if err != nil {
		return "", err
	}
	return base + "-" + check, nil
}

// ValidateNumber verifies the "#########-##" shape and the check digits.
func ValidateNumber(number string) error {
	if len(number) != 12 || number[9] != '-' {
		return derrors.New(derrors.CodeInvalidInput, "credential number must have form #########-##")
	}
	check, err := CheckDigits(number[:9])
	if err != nil {
		return err
	}
	if number[10:] != check {
		return derrors.New(derrors.CodeInvalidInput, "credential number check digits do not match")
	}
	return nil
}
