package core

import "strings"

// Split input modes: "total" means the user typed the full bill and their
// share is the leftover; "share" means the user typed their own share and
// the full bill is share plus all participant amounts.
const (
	SplitModeTotal SplitMode = "total"
	SplitModeShare SplitMode = "share"
)

type SplitMode string

// SplitInput is a participant's share as entered by the user.
type SplitInput struct {
	Name   string
	Amount Money
}

// SplitResult reconciles a shared expense between user and participants.
type SplitResult struct {
	UserShare    Money
	TotalBill    Money
	FriendsTotal Money
}

// ComputeSplit derives the user's share and the total bill from a shared
// expense. Only UserShare is ever recorded as the transaction amount.
//
// In total mode a bill smaller than the participant sum is rejected with
// ErrSplitExceedsTotal before anything is written; the share is never
// clamped to zero past validation. Every participant must be named;
// unspecified amounts count as zero.
func ComputeSplit(mode SplitMode, entered Money, participants []SplitInput) (SplitResult, error) {
	var friends Money
	for _, p := range participants {
		if strings.TrimSpace(p.Name) == "" {
			return SplitResult{}, ErrEmptyParticipant
		}
		if p.Amount.IsNegative() {
			return SplitResult{}, ErrInvalidAmount
		}
		friends = friends.Add(p.Amount)
	}

	switch mode {
	case SplitModeTotal:
		share := entered.Sub(friends)
		if share.IsNegative() {
			return SplitResult{}, ErrSplitExceedsTotal
		}
		return SplitResult{UserShare: share, TotalBill: entered, FriendsTotal: friends}, nil
	case SplitModeShare:
		return SplitResult{UserShare: entered, TotalBill: entered.Add(friends), FriendsTotal: friends}, nil
	}
	return SplitResult{}, ErrInvalidSplitMode
}
