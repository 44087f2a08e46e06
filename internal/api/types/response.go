// internal/api/types/response.go
package types

import "tochcoin-wallet/internal/domain"

// ListResponse is a fixed-size window of the newest items.
// T represents the type of data contained in the 'Data' slice.
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Limit int `json:"limit"`
}

// TransactionResponse is returned by every ledger write.
type TransactionResponse struct {
	Transaction *domain.Transaction `json:"transaction"`
	NewBalance  int64               `json:"new_balance"`
}

// ProfileResponse is returned by profile registration. Reward is set only on first registration.
type ProfileResponse struct {
	Profile *domain.Profile      `json:"profile"`
	Created bool                 `json:"created"`
	Reward  *domain.RewardNotice `json:"reward,omitempty"`
}

// EventResponse is returned by event creation.
type EventResponse struct {
	Event  *domain.CommunityEvent `json:"event"`
	Reward *domain.RewardNotice   `json:"reward,omitempty"`
}
