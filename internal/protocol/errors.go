package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Validation.
	ErrBadRequest  = "E_BAD_REQUEST"
	ErrInvalidZone = "E_INVALID_ZONE"
	ErrInvalidTier = "E_INVALID_TIER"
	ErrPriceTooLow = "E_PRICE_TOO_LOW"

	// Authorization.
	ErrNotOperator = "E_NOT_OPERATOR"

	// Lookup.
	ErrNotFound = "E_NOT_FOUND"

	// Resources.
	ErrAlreadyRegistered   = "E_ALREADY_REGISTERED"
	ErrInsufficientBalance = "E_INSUFFICIENT_BALANCE"
	ErrNoSlotsAvailable    = "E_NO_SLOTS_AVAILABLE"
	ErrPowerBudgetExceeded = "E_POWER_BUDGET_EXCEEDED"
	ErrCooldown            = "E_COOLDOWN"
	ErrPhaseLocked         = "E_PHASE_LOCKED"

	// Invariant protection.
	ErrSupplyCap        = "E_SUPPLY_CAP"
	ErrNothingToClaim   = "E_NOTHING_TO_CLAIM"
	ErrTooEarly         = "E_TOO_EARLY"
	ErrAlreadyProcessed = "E_ALREADY_PROCESSED"
	ErrAlreadyActive    = "E_ALREADY_ACTIVE"
	ErrNotActive        = "E_NOT_ACTIVE"
	ErrAlreadyFull      = "E_ALREADY_FULL"
	ErrRigEquipped      = "E_RIG_EQUIPPED"

	// Events / sabotage.
	ErrEventsDisabled   = "E_EVENTS_DISABLED"
	ErrSelfAttack       = "E_SELF_ATTACK"
	ErrAttackerInactive = "E_ATTACKER_INACTIVE"
	ErrTargetInactive   = "E_TARGET_INACTIVE"

	// Marketplace.
	ErrNotOwner      = "E_NOT_OWNER"
	ErrListingClosed = "E_LISTING_CLOSED"
	ErrSelfPurchase  = "E_SELF_PURCHASE"
	ErrAlreadyListed = "E_ALREADY_LISTED"

	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:     {},
	ErrBadRequest:          {},
	ErrInvalidZone:         {},
	ErrInvalidTier:         {},
	ErrPriceTooLow:         {},
	ErrNotOperator:         {},
	ErrNotFound:            {},
	ErrAlreadyRegistered:   {},
	ErrInsufficientBalance: {},
	ErrNoSlotsAvailable:    {},
	ErrPowerBudgetExceeded: {},
	ErrCooldown:            {},
	ErrPhaseLocked:         {},
	ErrSupplyCap:           {},
	ErrNothingToClaim:      {},
	ErrTooEarly:            {},
	ErrAlreadyProcessed:    {},
	ErrAlreadyActive:       {},
	ErrNotActive:           {},
	ErrAlreadyFull:         {},
	ErrRigEquipped:         {},
	ErrEventsDisabled:      {},
	ErrSelfAttack:          {},
	ErrAttackerInactive:    {},
	ErrTargetInactive:      {},
	ErrNotOwner:            {},
	ErrListingClosed:       {},
	ErrSelfPurchase:        {},
	ErrAlreadyListed:       {},
	ErrInternal:            {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// SimError is the typed failure every mutating command returns. The code is
// the contract; the message is advisory.
type SimError struct {
	Code string
	Msg  string
}

func (e *SimError) Error() string {
	if e.Msg == "" {
		return e.Code
	}
	return e.Code + ": " + e.Msg
}

func Errf(code, msg string) *SimError { return &SimError{Code: code, Msg: msg} }

// CodeOf extracts the protocol code from an error, or E_INTERNAL for
// anything that is not a SimError.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	if se, ok := err.(*SimError); ok {
		return se.Code
	}
	return ErrInternal
}
