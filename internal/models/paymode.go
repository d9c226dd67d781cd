package models

// Payment mode codes, HomeBank compatible.
const (
	PaymodeNone             = 0
	PaymodeCreditCard       = 1
	PaymodeCheck            = 2
	PaymodeCash             = 3
	PaymodeBankTransfer     = 4
	PaymodeInternalTransfer = 5
	PaymodeDebitCard        = 6
	PaymodeStandingOrder    = 7
	PaymodeElectronic       = 8
	PaymodeDeposit          = 9
	PaymodeFIFee            = 10
)

var paymodeNames = map[int]string{
	PaymodeNone:             "none",
	PaymodeCreditCard:       "credit card",
	PaymodeCheck:            "check",
	PaymodeCash:             "cash",
	PaymodeBankTransfer:     "bank transfer",
	PaymodeInternalTransfer: "internal transfer",
	PaymodeDebitCard:        "debit card",
	PaymodeStandingOrder:    "standing order",
	PaymodeElectronic:       "electronic payment",
	PaymodeDeposit:          "deposit",
	PaymodeFIFee:            "FI fee",
}

// ValidPaymode reports whether code is a known payment mode.
func ValidPaymode(code int) bool {
	_, ok := paymodeNames[code]
	return ok
}

// PaymodeName returns the display name for a payment mode code.
func PaymodeName(code int) string {
	return paymodeNames[code]
}

// Paymodes returns the full code -> name lookup table.
func Paymodes() map[int]string {
	out := make(map[int]string, len(paymodeNames))
	for k, v := range paymodeNames {
		out[k] = v
	}
	return out
}
