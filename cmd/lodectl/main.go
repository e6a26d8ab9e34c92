package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"lodegrid.ai/internal/protocol"
)

// lodectl is a small operator console: it speaks the same websocket protocol
// as agents and prints RESULT payloads as JSON.

var (
	flagURL      string
	flagOperator string
)

func main() {
	root := &cobra.Command{
		Use:           "lodectl",
		Short:         "query and drive a lodegrid server over websocket",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagURL, "url", "ws://127.0.0.1:8080/v1/ws", "server websocket url")
	root.PersistentFlags().StringVar(&flagOperator, "operator", "lodectl", "operator name for the session")

	root.AddCommand(
		queryCmd("state", "show global game state", protocol.QGameState, nil),
		queryCmd("supply", "show token supply metrics", protocol.QSupplyMetrics, nil),
		queryCmd("zones", "show per-zone member counts", protocol.QZoneCounts, nil),
		queryCmd("agent <agent-id>", "show one agent", protocol.QAgent, func(q *protocol.QueryMsg, args []string) {
			q.AgentID = args[0]
		}),
		queryCmd("mining <agent-id>", "show an agent's mining status", protocol.QMiningStatus, func(q *protocol.QueryMsg, args []string) {
			q.AgentID = args[0]
		}),
		queryCmd("event <event-id>", "show one cosmic event", protocol.QEvent, func(q *protocol.QueryMsg, args []string) {
			q.EventID = args[0]
		}),
		registerCmd(),
		heartbeatCmd(),
		opCmd("claim <agent-id>", "claim buffered rewards", protocol.OpClaim),
		opCmd("trigger-event", "roll a cosmic event", protocol.OpTriggerEvent),
		processEventCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func queryCmd(use, short, op string, bind func(*protocol.QueryMsg, []string)) *cobra.Command {
	nargs := cobra.NoArgs
	if bind != nil {
		nargs = cobra.ExactArgs(1)
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  nargs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := protocol.QueryMsg{
				Type:            protocol.TypeQuery,
				ProtocolVersion: protocol.Version,
				ID:              uuid.NewString(),
				Op:              op,
			}
			if bind != nil {
				bind(&q, args)
			}
			return roundTrip(q)
		},
	}
}

func registerCmd() *cobra.Command {
	var stableID string
	var zone int
	cmd := &cobra.Command{
		Use:   "register",
		Short: "register a new agent for this operator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if stableID == "" {
				stableID = flagOperator
			}
			return roundTrip(protocol.CmdMsg{
				Type:            protocol.TypeCmd,
				ProtocolVersion: protocol.Version,
				ID:              uuid.NewString(),
				Op:              protocol.OpRegister,
				StableID:        stableID,
				Zone:            zone,
			})
		},
	}
	cmd.Flags().StringVar(&stableID, "stable-id", "", "stable agent identity (default: operator name)")
	cmd.Flags().IntVar(&zone, "zone", 0, "starting zone 0-7")
	return cmd
}

func heartbeatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "heartbeat <agent-id>",
		Short: "send a heartbeat and settle rewards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return roundTrip(protocol.CmdMsg{
				Type:            protocol.TypeCmd,
				ProtocolVersion: protocol.Version,
				ID:              uuid.NewString(),
				Op:              protocol.OpHeartbeat,
				AgentID:         args[0],
			})
		},
	}
}

func opCmd(use, short, op string) *cobra.Command {
	needsAgent := op != protocol.OpTriggerEvent
	nargs := cobra.NoArgs
	if needsAgent {
		nargs = cobra.ExactArgs(1)
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  nargs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := protocol.CmdMsg{
				Type:            protocol.TypeCmd,
				ProtocolVersion: protocol.Version,
				ID:              uuid.NewString(),
				Op:              op,
			}
			if needsAgent {
				m.AgentID = args[0]
			}
			return roundTrip(m)
		},
	}
}

func processEventCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process-event <event-id>",
		Short: "apply a rolled cosmic event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return roundTrip(protocol.CmdMsg{
				Type:            protocol.TypeCmd,
				ProtocolVersion: protocol.Version,
				ID:              uuid.NewString(),
				Op:              protocol.OpProcessEvent,
				EventID:         args[0],
			})
		},
	}
}

func roundTrip(msg any) error {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.Dial(flagURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", flagURL, err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		Operator:        flagOperator,
	}
	if err := writeJSON(conn, hello); err != nil {
		return err
	}
	// WELCOME
	if _, _, err := conn.ReadMessage(); err != nil {
		return fmt.Errorf("welcome: %w", err)
	}

	if err := writeJSON(conn, msg); err != nil {
		return err
	}
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("result: %w", err)
	}

	var pretty json.RawMessage = raw
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		fmt.Println(string(raw))
		return nil
	}
	fmt.Println(string(out))
	return nil
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
