package expense

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/expense-ledger/backend/internal/domain/entity"
	domainerror "github.com/expense-ledger/backend/internal/domain/error"
)

func validCreateInput() CreateExpenseInput {
	return CreateExpenseInput{
		Category:    "Invoice",
		Amount:      decimal.RequireFromString("42.50"),
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Description: "  Catering  ",
	}
}

func TestCreateExpenseUseCase_Validation(t *testing.T) {
	uc := NewCreateExpenseUseCase(newFakeExpenseRepository(), &fakeSource{})

	tests := []struct {
		name     string
		mutate   func(*CreateExpenseInput)
		wantCode domainerror.ExpenseErrorCode
	}{
		{name: "unknown category", mutate: func(in *CreateExpenseInput) { in.Category = "travel" }, wantCode: domainerror.ErrCodeInvalidCategory},
		{name: "missing category", mutate: func(in *CreateExpenseInput) { in.Category = "" }, wantCode: domainerror.ErrCodeInvalidCategory},
		{name: "negative amount", mutate: func(in *CreateExpenseInput) { in.Amount = decimal.NewFromInt(-1) }, wantCode: domainerror.ErrCodeNegativeAmount},
		{name: "missing date", mutate: func(in *CreateExpenseInput) { in.Date = time.Time{} }, wantCode: domainerror.ErrCodeInvalidDate},
		{name: "unknown status", mutate: func(in *CreateExpenseInput) { in.PaymentStatus = "late" }, wantCode: domainerror.ErrCodeInvalidPaymentStatus},
		{name: "missing parent", mutate: func(in *CreateExpenseInput) { in.ParentID = strPtr("nope") }, wantCode: domainerror.ErrCodeParentNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validCreateInput()
			tt.mutate(&input)

			_, err := uc.Execute(context.Background(), input)

			var expErr *domainerror.ExpenseError
			if !errors.As(err, &expErr) {
				t.Fatalf("expected ExpenseError, got %v", err)
			}
			if expErr.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, expErr.Code)
			}
		})
	}
}

func TestCreateExpenseUseCase_Root(t *testing.T) {
	repo := newFakeExpenseRepository()
	source := &fakeSource{}
	uc := NewCreateExpenseUseCase(repo, source)

	output, err := uc.Execute(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e := output.Expense
	if e.ID == "" {
		t.Error("expected an ID to be assigned")
	}
	if e.Category != entity.ExpenseCategoryInvoice {
		t.Errorf("expected category invoice, got %s", e.Category)
	}
	if e.PaymentStatus != entity.PaymentStatusPending {
		t.Errorf("expected default status pending, got %s", e.PaymentStatus)
	}
	if e.Description != "Catering" {
		t.Errorf("expected trimmed description, got %q", e.Description)
	}
	if len(repo.created) != 1 {
		t.Errorf("expected 1 insert, got %d", len(repo.created))
	}
	if source.refreshes != 1 {
		t.Errorf("expected a refresh after create, got %d", source.refreshes)
	}
}

func TestCreateExpenseUseCase_SubEntryFollowsParent(t *testing.T) {
	parent := storedExpense("root", nil)
	parent.Type = "Client"
	repo := newFakeExpenseRepository(parent, storedExpense("child", strPtr("root")))
	uc := NewCreateExpenseUseCase(repo, &fakeSource{})

	input := validCreateInput()
	input.ParentID = strPtr("root")

	output, err := uc.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Expense.Category != entity.ExpenseCategoryClient {
		t.Errorf("expected sub-entry to take parent category client, got %s", output.Expense.Category)
	}

	t.Run("parent is a sub-entry", func(t *testing.T) {
		input := validCreateInput()
		input.ParentID = strPtr("child")

		_, err := uc.Execute(context.Background(), input)
		if !errors.Is(err, domainerror.ErrParentNotRoot) {
			t.Errorf("expected ErrParentNotRoot, got %v", err)
		}
	})
}

func TestCreateExpenseUseCase_BookingForcesClient(t *testing.T) {
	uc := NewCreateExpenseUseCase(newFakeExpenseRepository(), &fakeSource{})

	input := validCreateInput()
	input.Category = "company"
	input.BookingID = strPtr("bk_1")

	output, err := uc.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Expense.Category != entity.ExpenseCategoryClient {
		t.Errorf("expected client, got %s", output.Expense.Category)
	}
}

func TestUpdatePaymentStatusUseCase(t *testing.T) {
	repo := newFakeExpenseRepository(storedExpense("a", nil))
	source := &fakeSource{}
	uc := NewUpdatePaymentStatusUseCase(repo, source)
	ctx := context.Background()

	t.Run("toggle", func(t *testing.T) {
		output, err := uc.Execute(ctx, UpdatePaymentStatusInput{ExpenseID: "a"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if output.Previous != entity.PaymentStatusPending || output.Status != entity.PaymentStatusPaid {
			t.Errorf("expected pending -> paid, got %s -> %s", output.Previous, output.Status)
		}
	})

	t.Run("explicit", func(t *testing.T) {
		status := entity.PaymentStatusPaid
		output, err := uc.Execute(ctx, UpdatePaymentStatusInput{ExpenseID: "a", Status: &status})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if output.Status != entity.PaymentStatusPaid {
			t.Errorf("expected paid, got %s", output.Status)
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := uc.Execute(ctx, UpdatePaymentStatusInput{ExpenseID: "missing"})
		if !errors.Is(err, domainerror.ErrExpenseNotFound) {
			t.Errorf("expected ErrExpenseNotFound, got %v", err)
		}
	})

	t.Run("invalid status", func(t *testing.T) {
		status := entity.PaymentStatus("void")
		_, err := uc.Execute(ctx, UpdatePaymentStatusInput{ExpenseID: "a", Status: &status})
		if !errors.Is(err, domainerror.ErrInvalidPaymentStatus) {
			t.Errorf("expected ErrInvalidPaymentStatus, got %v", err)
		}
	})

	if source.refreshes != 2 {
		t.Errorf("expected 2 refreshes, got %d", source.refreshes)
	}
}
