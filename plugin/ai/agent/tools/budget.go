package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/orbita/plugin/sepay"
)

// GetBudgetTool reports the accumulated balance of a bank account.
type GetBudgetTool struct {
	reader sepay.BudgetReader
}

// NewGetBudgetTool creates the get_budget tool.
func NewGetBudgetTool(reader sepay.BudgetReader) *GetBudgetTool {
	return &GetBudgetTool{reader: reader}
}

func (t *GetBudgetTool) Name() string { return "get_budget" }

func (t *GetBudgetTool) Description() string {
	return "Get the accumulated budget (VND) for a given bank account number, as of its latest transaction this month."
}

func (t *GetBudgetTool) Parameters() string {
	return `{
  "type": "object",
  "properties": {
    "account_number": {"type": "string", "description": "Bank account number."}
  },
  "required": ["account_number"]
}`
}

type getBudgetInput struct {
	AccountNumber string `json:"account_number"`
}

func (t *GetBudgetTool) Run(ctx context.Context, input string) (string, error) {
	var in getBudgetInput
	if err := decodeArgs(input, &in); err != nil {
		return "", err
	}
	if strings.TrimSpace(in.AccountNumber) == "" {
		return "", invalidArgs("account_number is required")
	}

	budget, err := t.reader.Budget(ctx, in.AccountNumber)
	if err != nil {
		return "", fmt.Errorf("reading budget: %w", err)
	}
	return toJSON(budget)
}
