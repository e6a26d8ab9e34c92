package colony

import "lodegrid.ai/internal/protocol"

// Ledger is the sole mutator of global token supply. Nothing else in the
// colony touches minted/burned directly.
//
// Invariants: minted <= cap, burned <= minted.
type Ledger struct {
	cap      uint64
	minted   uint64
	burned   uint64
	treasury uint64

	balances map[string]uint64 // by operator
}

func NewLedger(cap uint64) Ledger {
	return Ledger{cap: cap, balances: map[string]uint64{}}
}

func (l *Ledger) Cap() uint64      { return l.cap }
func (l *Ledger) Minted() uint64   { return l.minted }
func (l *Ledger) Burned() uint64   { return l.burned }
func (l *Ledger) Treasury() uint64 { return l.treasury }

// Remaining is the mintable headroom under the hard cap.
func (l *Ledger) Remaining() uint64 { return l.cap - l.minted }

// Circulating is supply that still exists: minted minus burned.
func (l *Ledger) Circulating() uint64 { return l.minted - l.burned }

// Mint creates up to amount new tokens, clamped to the remaining headroom,
// and returns how much was actually minted. The caller decides where the
// minted tokens go.
func (l *Ledger) Mint(amount uint64) uint64 {
	if rem := l.Remaining(); amount > rem {
		amount = rem
	}
	l.minted += amount
	return amount
}

// Burn permanently removes supply. The caller must have removed the amount
// from wherever it was held.
func (l *Ledger) Burn(amount uint64) {
	if amount > l.minted-l.burned {
		amount = l.minted - l.burned
	}
	l.burned += amount
}

func (l *Ledger) Credit(operator string, amount uint64) {
	if amount == 0 {
		return
	}
	l.balances[operator] += amount
}

func (l *Ledger) Debit(operator string, amount uint64) *protocol.SimError {
	bal := l.balances[operator]
	if bal < amount {
		return errf(protocol.ErrInsufficientBalance, "balance %d < cost %d", bal, amount)
	}
	l.balances[operator] = bal - amount
	return nil
}

func (l *Ledger) Balance(operator string) uint64 { return l.balances[operator] }

func (l *Ledger) TreasuryAdd(amount uint64) { l.treasury += amount }

// spend debits the operator and splits the amount into a burned part and a
// treasury part. Validation-before-mutation: the debit is the only check.
func (c *Colony) spend(operator string, amount uint64, burnPct int) *protocol.SimError {
	if amount == 0 {
		return nil
	}
	if err := c.ledger.Debit(operator, amount); err != nil {
		return err
	}
	burn := amount * uint64(burnPct) / 100
	c.ledger.Burn(burn)
	c.ledger.TreasuryAdd(amount - burn)
	return nil
}
