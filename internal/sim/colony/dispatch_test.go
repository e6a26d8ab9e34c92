package colony

import (
	"testing"

	"lodegrid.ai/internal/protocol"
)

func TestDispatch_Register(t *testing.T) {
	c := newTestColony(t, ColonyConfig{})

	res := c.Dispatch(protocol.CmdMsg{
		ID: "m1", Op: protocol.OpRegister,
		Operator: "op1", StableID: "sid-1", Zone: 2,
	})
	if !res.OK || res.Ref != "m1" {
		t.Fatalf("result: %+v", res)
	}
	v, ok := res.Data.(AgentView)
	if !ok {
		t.Fatalf("data type: %T", res.Data)
	}
	if v.Zone != 2 || v.Operator != "op1" {
		t.Fatalf("agent: %+v", v)
	}
}

func TestDispatch_ErrorsCarryCodes(t *testing.T) {
	c := newTestColony(t, ColonyConfig{})
	mustRegister(t, c, "op1", 0)

	res := c.Dispatch(protocol.CmdMsg{
		ID: "m2", Op: protocol.OpRegister,
		Operator: "op1", StableID: "sid-x", Zone: 0,
	})
	if res.OK {
		t.Fatalf("duplicate register succeeded")
	}
	if res.Code != protocol.ErrAlreadyRegistered {
		t.Fatalf("code: got %s", res.Code)
	}
	if res.Msg == "" {
		t.Fatalf("missing error message")
	}

	res = c.Dispatch(protocol.CmdMsg{ID: "m3", Op: "NO_SUCH_OP", Operator: "op1"})
	if res.OK || res.Code != protocol.ErrBadRequest {
		t.Fatalf("unknown op result: %+v", res)
	}
}

func TestQuery(t *testing.T) {
	c := newTestColony(t, ColonyConfig{})
	v := mustRegister(t, c, "op1", 0)

	res := c.Query(protocol.QueryMsg{ID: "q1", Op: protocol.QGameState})
	if !res.OK {
		t.Fatalf("game state: %+v", res)
	}
	gs, ok := res.Data.(GameStateView)
	if !ok {
		t.Fatalf("data type: %T", res.Data)
	}
	if gs.TotalAgents != 1 || gs.ActiveAgents != 1 {
		t.Fatalf("game state: %+v", gs)
	}

	res = c.Query(protocol.QueryMsg{ID: "q2", Op: protocol.QAgent, AgentID: v.ID})
	if !res.OK {
		t.Fatalf("agent query: %+v", res)
	}

	res = c.Query(protocol.QueryMsg{ID: "q3", Op: protocol.QAgent, AgentID: "AGT-missing"})
	if res.OK || res.Code != protocol.ErrNotFound {
		t.Fatalf("missing agent result: %+v", res)
	}

	res = c.Query(protocol.QueryMsg{ID: "q4", Op: "NO_SUCH_QUERY"})
	if res.OK || res.Code != protocol.ErrBadRequest {
		t.Fatalf("unknown query result: %+v", res)
	}
}
