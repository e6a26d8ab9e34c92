package colony

import "lodegrid.ai/internal/protocol"

const (
	ListingActive    = "ACTIVE"
	ListingSold      = "SOLD"
	ListingCancelled = "CANCELLED"
)

type Listing struct {
	ID          string
	RigID       string
	Seller      string // agent id
	Price       uint64
	Status      string
	CreatedTick uint64
}

// ListRig puts an owned, unequipped rig up for sale.
func (c *Colony) ListRig(operator, agentID, rigID string, price uint64) (ListingView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cmdsThisTick++

	a, serr := c.agentByOperatorLocked(operator, agentID)
	if serr != nil {
		return ListingView{}, serr
	}
	if price < c.cfg.MinListingPrice {
		return ListingView{}, errf(protocol.ErrPriceTooLow, "price %d < %d", price, c.cfg.MinListingPrice)
	}
	r := c.rigs[rigID]
	if r == nil {
		return ListingView{}, errf(protocol.ErrNotFound, "rig %s", rigID)
	}
	if r.AgentID != a.ID {
		return ListingView{}, errf(protocol.ErrNotOwner, "rig %s", rigID)
	}
	if r.ListingID != "" {
		return ListingView{}, errf(protocol.ErrAlreadyListed, "rig %s", rigID)
	}
	if r.Active {
		return ListingView{}, errf(protocol.ErrRigEquipped, "rig %s", rigID)
	}

	l := &Listing{
		ID:          c.nextID("LST", &c.nextListing),
		RigID:       rigID,
		Seller:      a.ID,
		Price:       price,
		Status:      ListingActive,
		CreatedTick: c.tick,
	}
	c.listings[l.ID] = l
	r.ListingID = l.ID

	c.auditLocked(a.ID, "LIST_RIG", map[string]any{"listing": l.ID, "rig": rigID, "price": price})
	return c.listingViewLocked(l), nil
}

// BuyRig settles a sale: 10% of the price burns, the seller gets the rest,
// and ownership moves in the same commit.
func (c *Colony) BuyRig(operator, buyerID, listingID string) (ListingView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cmdsThisTick++

	buyer, serr := c.agentByOperatorLocked(operator, buyerID)
	if serr != nil {
		return ListingView{}, serr
	}
	l := c.listings[listingID]
	if l == nil {
		return ListingView{}, errf(protocol.ErrNotFound, "listing %s", listingID)
	}
	if l.Status != ListingActive {
		return ListingView{}, errf(protocol.ErrListingClosed, "listing %s is %s", listingID, l.Status)
	}
	if l.Seller == buyer.ID {
		return ListingView{}, errf(protocol.ErrSelfPurchase, "listing %s", listingID)
	}
	seller := c.agents[l.Seller]
	r := c.rigs[l.RigID]
	if seller == nil || r == nil || r.AgentID != l.Seller {
		return ListingView{}, errf(protocol.ErrNotOwner, "seller no longer owns rig %s", l.RigID)
	}
	if err := c.ledger.Debit(operator, l.Price); err != nil {
		return ListingView{}, err
	}

	burn := l.Price * uint64(c.cfg.MarketBurnPct) / 100
	c.ledger.Burn(burn)
	c.ledger.Credit(seller.Operator, l.Price-burn)

	for i, id := range seller.RigIDs {
		if id == r.ID {
			seller.RigIDs = append(seller.RigIDs[:i], seller.RigIDs[i+1:]...)
			break
		}
	}
	buyer.RigIDs = append(buyer.RigIDs, r.ID)
	r.AgentID = buyer.ID
	r.ListingID = ""
	r.Granted = false
	l.Status = ListingSold

	c.auditLocked(buyer.ID, "BUY_RIG", map[string]any{
		"listing": l.ID, "rig": r.ID, "seller": seller.ID, "price": l.Price, "burn": burn,
	})
	return c.listingViewLocked(l), nil
}

func (c *Colony) CancelListing(operator, agentID, listingID string) (ListingView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cmdsThisTick++

	a, serr := c.agentByOperatorLocked(operator, agentID)
	if serr != nil {
		return ListingView{}, serr
	}
	l := c.listings[listingID]
	if l == nil {
		return ListingView{}, errf(protocol.ErrNotFound, "listing %s", listingID)
	}
	if l.Seller != a.ID {
		return ListingView{}, errf(protocol.ErrNotOwner, "listing %s", listingID)
	}
	if l.Status != ListingActive {
		return ListingView{}, errf(protocol.ErrListingClosed, "listing %s is %s", listingID, l.Status)
	}

	l.Status = ListingCancelled
	if r := c.rigs[l.RigID]; r != nil && r.ListingID == l.ID {
		r.ListingID = ""
	}
	return c.listingViewLocked(l), nil
}
