package colony

import "lodegrid.ai/internal/protocol"

// Dispatch routes one mutating command from the RPC boundary into the typed
// handlers. Every outcome is a RESULT: success carries the updated entity
// snapshot, failure carries the typed code. No partial states escape.
func (c *Colony) Dispatch(cmd protocol.CmdMsg) protocol.ResultMsg {
	var (
		data any
		err  error
	)

	switch cmd.Op {
	case protocol.OpRegister:
		data, err = c.Register(cmd.Operator, cmd.StableID, cmd.Zone)
	case protocol.OpHeartbeat:
		data, err = c.Heartbeat(cmd.Operator, cmd.AgentID)
	case protocol.OpClaim:
		data, err = c.Claim(cmd.Operator, cmd.AgentID)
	case protocol.OpPurchaseRig:
		data, err = c.PurchaseRig(cmd.Operator, cmd.AgentID, cmd.Tier)
	case protocol.OpEquipRig:
		data, err = c.EquipRig(cmd.Operator, cmd.AgentID, cmd.RigID)
	case protocol.OpUnequipRig:
		data, err = c.UnequipRig(cmd.Operator, cmd.AgentID, cmd.RigID)
	case protocol.OpRepairRig:
		data, err = c.RepairRig(cmd.Operator, cmd.AgentID, cmd.RigID)
	case protocol.OpUpgradeFacility:
		data, err = c.UpgradeFacility(cmd.Operator, cmd.AgentID)
	case protocol.OpMaintainFacility:
		data, err = c.MaintainFacility(cmd.Operator, cmd.AgentID)
	case protocol.OpPurchaseShield:
		data, err = c.PurchaseShield(cmd.Operator, cmd.AgentID, cmd.Tier)
	case protocol.OpActivateShield:
		data, err = c.ActivateShield(cmd.Operator, cmd.AgentID)
	case protocol.OpMigrateZone:
		data, err = c.MigrateZone(cmd.Operator, cmd.AgentID, cmd.Zone)
	case protocol.OpTriggerEvent:
		data, err = c.TriggerEvent()
	case protocol.OpProcessEvent:
		data, err = c.ProcessEvent(cmd.EventID)
	case protocol.OpFacilityRaid:
		data, err = c.FacilityRaid(cmd.Operator, cmd.AgentID, cmd.TargetID)
	case protocol.OpRigJam:
		data, err = c.RigJam(cmd.Operator, cmd.AgentID, cmd.TargetID)
	case protocol.OpGatherIntel:
		data, err = c.GatherIntel(cmd.Operator, cmd.AgentID, cmd.TargetID)
	case protocol.OpListRig:
		data, err = c.ListRig(cmd.Operator, cmd.AgentID, cmd.RigID, cmd.Price)
	case protocol.OpBuyRig:
		data, err = c.BuyRig(cmd.Operator, cmd.AgentID, cmd.ListingID)
	case protocol.OpCancelListing:
		data, err = c.CancelListing(cmd.Operator, cmd.AgentID, cmd.ListingID)
	default:
		err = errf(protocol.ErrBadRequest, "unknown op %q", cmd.Op)
	}

	return c.result(cmd.ID, data, err)
}

// Query routes one read-only operation.
func (c *Colony) Query(q protocol.QueryMsg) protocol.ResultMsg {
	var (
		data any
		err  error
	)

	switch q.Op {
	case protocol.QAgent:
		data, err = c.GetAgent(q.AgentID)
	case protocol.QMiningStatus:
		data, err = c.GetMiningStatus(q.AgentID)
	case protocol.QGameState:
		data = c.GetGameState()
	case protocol.QSupplyMetrics:
		data = c.GetSupplyMetrics()
	case protocol.QZoneCounts:
		data = c.GetZoneCounts()
	case protocol.QEvent:
		data, err = c.GetEvent(q.EventID)
	default:
		err = errf(protocol.ErrBadRequest, "unknown query %q", q.Op)
	}

	return c.result(q.ID, data, err)
}

func (c *Colony) result(ref string, data any, err error) protocol.ResultMsg {
	res := protocol.ResultMsg{
		Type: protocol.TypeResult,
		Ref:  ref,
		Tick: c.Tick(),
	}
	if err != nil {
		res.Code = protocol.CodeOf(err)
		res.Msg = err.Error()
		return res
	}
	res.OK = true
	res.Data = data
	return res
}
