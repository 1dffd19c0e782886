package journals

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian/internal/accounting/shared"
)

func validInput() PostingInput {
	return PostingInput{
		OrgID:        1,
		PeriodID:     1,
		Date:         time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		SourceModule: "PAYROLL.RUN",
		SourceID:     uuid.New(),
		Memo:         "test entry",
		PostedBy:     7,
		Lines: []PostingLineInput{
			{AccountID: 1, Debit: 100},
			{AccountID: 2, Credit: 100},
		},
	}
}

func TestPostingInputValidateAccepts(t *testing.T) {
	if err := validInput().Validate(); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}
}

func TestPostingInputValidateRejectsUnbalanced(t *testing.T) {
	in := validInput()
	in.Lines[1].Credit = 99.99
	if err := in.Validate(); !errors.Is(err, shared.ErrUnbalanced) {
		t.Fatalf("expected ErrUnbalanced, got %v", err)
	}
}

func TestPostingInputValidateToleratesSubCentDifference(t *testing.T) {
	in := validInput()
	in.Lines[0].Debit = 100.001
	in.Lines[1].Credit = 100.0
	if err := in.Validate(); err != nil {
		t.Fatalf("amounts equal at two decimals must pass, got %v", err)
	}
}

func TestPostingInputValidateRejectsSingleLine(t *testing.T) {
	in := validInput()
	in.Lines = in.Lines[:1]
	if err := in.Validate(); !errors.Is(err, shared.ErrTooFewLines) {
		t.Fatalf("expected ErrTooFewLines, got %v", err)
	}
}

func TestPostingInputValidateRejectsDebitAndCredit(t *testing.T) {
	in := validInput()
	in.Lines[0].Credit = 50
	in.Lines[0].Debit = 50
	if err := in.Validate(); err == nil {
		t.Fatal("expected error for line with both debit and credit")
	}
}

func TestPostingInputValidateRejectsNegativeAmounts(t *testing.T) {
	in := validInput()
	in.Lines[0].Debit = -100
	if err := in.Validate(); err == nil {
		t.Fatal("expected error for negative amount")
	}
}

func TestPostingInputValidateRequiresOrgAndSource(t *testing.T) {
	in := validInput()
	in.OrgID = 0
	if err := in.Validate(); err == nil {
		t.Fatal("expected error for missing organisation")
	}

	in = validInput()
	in.SourceID = uuid.Nil
	if err := in.Validate(); err == nil {
		t.Fatal("expected error for missing source id")
	}

	in = validInput()
	in.SourceModule = ""
	if err := in.Validate(); err == nil {
		t.Fatal("expected error for missing source module")
	}
}
