package backup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPayload() *Payload {
	return &Payload{
		Manifest: Manifest{
			FormatVersion: CurrentFormatVersion,
			AccountCount:  1,
			PositionCount: 1,
			SnapshotCount: 1,
		},
		Accounts: []AccountRecord{
			{ID: "a1", Name: "Savings", Kind: "SAVINGS"},
		},
		Positions: []PositionRecord{
			{ID: "p1", AccountID: "a1", Symbol: "AAPL"},
		},
		Snapshots: []SnapshotRecord{
			{ID: "s1", AccountID: "a1", Value: 100},
		},
	}
}

func TestValidate_OK(t *testing.T) {
	r := Validate(validPayload())
	assert.True(t, r.Valid())
	assert.Empty(t, r.Errors)
	assert.Empty(t, r.Warnings)
}

func TestValidate_CountMismatch(t *testing.T) {
	p := validPayload()
	p.Manifest.AccountCount = 7

	r := Validate(p)
	assert.False(t, r.Valid())
	require.Len(t, r.Errors, 1)
	assert.Contains(t, r.Errors[0], "account_count")
}

func TestValidate_MissingFields(t *testing.T) {
	p := validPayload()
	p.Accounts[0].Name = ""
	p.Accounts[0].Kind = ""

	r := Validate(p)
	assert.False(t, r.Valid())
	assert.Len(t, r.Errors, 2)
}

func TestValidate_DuplicateIDs(t *testing.T) {
	p := validPayload()
	p.Accounts = append(p.Accounts, AccountRecord{ID: "a1", Name: "Dup", Kind: "SAVINGS"})
	p.Manifest.AccountCount = 2

	r := Validate(p)
	assert.False(t, r.Valid())
	require.Len(t, r.Errors, 1)
	assert.Contains(t, r.Errors[0], "duplicate")
}

func TestValidate_DanglingReferencesWarn(t *testing.T) {
	p := validPayload()
	p.Positions[0].AccountID = "ghost"
	p.Snapshots[0].AccountID = "ghost"

	r := Validate(p)
	assert.True(t, r.Valid())
	assert.Len(t, r.Warnings, 2)
}

func TestValidate_MissingVersion(t *testing.T) {
	p := validPayload()
	p.Manifest.FormatVersion = 0

	r := Validate(p)
	assert.False(t, r.Valid())
}
