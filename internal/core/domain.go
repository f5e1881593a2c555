package core

import (
	"errors"
	"fmt"
	"strings"
)

// Category is one of the closed set of transaction categories used in the
// ledger workbook.
type Category string

const (
	Makan        Category = "Makan"
	Kebersihan   Category = "Kebersihan"
	Keluarga     Category = "Keluarga"
	Kesihatan    Category = "Kesihatan"
	Khidmat      Category = "Khidmat"
	Pelaburan    Category = "Pelaburan"
	Pengangkutan Category = "Pengangkutan"
	Rencam       Category = "Rencam"
	Pendapatan   Category = "Pendapatan"
	Upah         Category = "Upah"
	Hadiah       Category = "Hadiah"
	Perbelanjaan Category = "Perbelanjaan"
	Hutang       Category = "Hutang"
	Hiburan      Category = "Hiburan"
	AlatKerja    Category = "Alat Kerja"
	Pendidikan   Category = "Pendidikan"
	Simpanan     Category = "Simpanan"
	// Pertukaran marks currency exchanges and transfers between own accounts.
	Pertukaran Category = "Pertukaran"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	Makan, Kebersihan, Keluarga, Kesihatan, Khidmat, Pelaburan, Pengangkutan,
	Rencam, Pendapatan, Upah, Hadiah, Perbelanjaan, Hutang, Hiburan,
	AlatKerja, Pendidikan, Simpanan, Pertukaran,
}

type (
	// Transaction is one ledger entry.
	Transaction struct {
		Date     Date
		Details  string
		Category Category
		Account  string
		Currency string
		Cost     Money
		// Participant is only recorded by the CSV append path.
		Participant string
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrUnknownCategory = errors.New("unknown category")
	ErrEmptyDetails    = errors.New("empty details")
	ErrEmptyAccount    = errors.New("empty account")
	ErrEmptyCurrency   = errors.New("empty currency")
)

// ParseCategory returns the category whose name matches s exactly.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// Valid reports whether c is a member of Categories.
func (c Category) Valid() bool {
	_, err := ParseCategory(string(c))
	return err == nil
}

func (t Transaction) Validate() error {
	if !t.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, t.Category)
	}
	if strings.TrimSpace(t.Details) == "" {
		return ErrEmptyDetails
	}
	if len(t.Details) > 200 {
		return errors.New("details too long (max 200 characters)")
	}
	if strings.TrimSpace(t.Account) == "" {
		return ErrEmptyAccount
	}
	if strings.TrimSpace(t.Currency) == "" {
		return ErrEmptyCurrency
	}
	return nil
}
