package hbcsv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayeeRoundTrip(t *testing.T) {
	rows := []PayeeRow{
		{Name: "Acme", Category: "Food:Groceries", Paymode: 6},
		{Name: "Landlord", Category: "Housing"},
		{Name: "No defaults"},
	}

	decoded, skipped := DecodePayees(EncodePayees(rows))
	assert.Equal(t, 0, skipped)
	assert.Equal(t, rows, decoded)
}

func TestDecodePayees_SkipsNamelessLines(t *testing.T) {
	raw := PayeeHeader + "\n" +
		";Food;3\n" +
		"Kept;;\n"

	rows, skipped := DecodePayees(raw)
	assert.Equal(t, 1, skipped)
	require.Len(t, rows, 1)
	assert.Equal(t, "Kept", rows[0].Name)
}

func TestCategoryRoundTrip(t *testing.T) {
	rows := []CategoryRow{
		{Level: 1, Type: "-", Name: "Food"},
		{Level: 2, Type: "-", Name: "Groceries"},
		{Level: 1, Type: "+", Name: "Salary"},
		{Level: 1, Type: "", Name: "Misc"},
	}

	decoded, skipped := DecodeCategories(EncodeCategories(rows))
	assert.Equal(t, 0, skipped)
	assert.Equal(t, rows, decoded)
}

func TestDecodeCategories_SkipsUnknownLevels(t *testing.T) {
	raw := "1;-;Food\n3;-;Too deep\n0;;Zero\n2;;Child"

	rows, skipped := DecodeCategories(raw)
	assert.Equal(t, 2, skipped)
	require.Len(t, rows, 2)
	assert.Equal(t, "Food", rows[0].Name)
	assert.Equal(t, "Child", rows[1].Name)
}
