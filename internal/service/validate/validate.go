package validate

import (
	"errors"
)

// Destination IBANs follow the TR scheme: two uppercase country letters
// followed by a digits-only body, 26 characters in total
const ibanLength = 26

func IBAN(iban string) error {
	if len(iban) != ibanLength {
		return errors.New("iban must be exactly 26 characters")
	}

	for i := range 2 {
		if iban[i] < 'A' || iban[i] > 'Z' {
			return errors.New("iban must start with a two letter country code")
		}
	}

	for i := 2; i < len(iban); i++ {
		if iban[i] < '0' || iban[i] > '9' {
			return errors.New("iban body must contain digits only")
		}
	}

	return nil
}
