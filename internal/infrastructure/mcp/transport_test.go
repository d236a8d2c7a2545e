package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	ID     int             `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// rpcConn sends one JSON-RPC request and waits for its response.
type rpcConn interface {
	roundTrip(t *testing.T, req rpcRequest) rpcResponse
}

type httpConn struct{ url string }

func (c httpConn) roundTrip(t *testing.T, req rpcRequest) rpcResponse {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal %s: %v", req.Method, err)
	}
	resp, err := http.Post(c.url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", req.Method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode %s: %v", req.Method, err)
	}
	return out
}

type wsConn struct{ conn *websocket.Conn }

func (c wsConn) roundTrip(t *testing.T, req rpcRequest) rpcResponse {
	t.Helper()
	if err := c.conn.WriteJSON(req); err != nil {
		t.Fatalf("write %s: %v", req.Method, err)
	}
	var out rpcResponse
	if err := c.conn.ReadJSON(&out); err != nil {
		t.Fatalf("read %s: %v", req.Method, err)
	}
	return out
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer func() { _ = l.Close() }()
	return l.Addr().String()
}

// eventually retries fn every 50ms until it succeeds or timeout passes.
func eventually(t *testing.T, timeout time.Duration, what string, fn func() error) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		err := fn()
		if err == nil {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("%s: %v", what, err)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func dialHTTP(t *testing.T, addr string) rpcConn {
	eventually(t, 5*time.Second, "health check", func() error {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return err
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		return nil
	})
	return httpConn{url: "http://" + addr + "/mcp"}
}

func dialWS(t *testing.T, addr string) rpcConn {
	var conn *websocket.Conn
	eventually(t, 5*time.Second, "websocket dial", func() error {
		c, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/mcp", nil)
		conn = c
		return err
	})
	t.Cleanup(func() { _ = conn.Close() })
	return wsConn{conn: conn}
}

func TestNetworkTransports(t *testing.T) {
	prevVersion, prevCommit, prevDate := Version, BuildCommit, BuildDate
	Version, BuildCommit, BuildDate = "test", "abc123", "2026-01-01"
	t.Cleanup(func() { Version, BuildCommit, BuildDate = prevVersion, prevCommit, prevDate })

	tests := []struct {
		name  string
		serve func(*Server, context.Context, string) error
		dial  func(*testing.T, string) rpcConn
	}{
		{"http", (*Server).ServeHTTP, dialHTTP},
		{"websocket", (*Server).ServeWebSocket, dialWS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, err := NewServer(t.TempDir())
			if err != nil {
				t.Fatalf("NewServer: %v", err)
			}
			t.Cleanup(func() { _ = srv.Close() })

			ctx, cancel := context.WithCancel(context.Background())
			t.Cleanup(cancel)
			addr := freeAddr(t)
			go func() { _ = tt.serve(srv, ctx, addr) }()
			conn := tt.dial(t, addr)

			resp := conn.roundTrip(t, rpcRequest{JSONRPC: "2.0", ID: 1, Method: "initialize", Params: map[string]any{
				"protocolVersion": "2024-11-05",
				"clientInfo":      map[string]any{"name": "riskaudit-test", "version": "0.0.0"},
				"capabilities":    map[string]any{},
			}})
			if resp.Error != nil {
				t.Fatalf("initialize: %s", resp.Error.Message)
			}
			var hello struct {
				ServerInfo struct {
					Name    string `json:"name"`
					Version string `json:"version"`
				} `json:"serverInfo"`
			}
			if err := json.Unmarshal(resp.Result, &hello); err != nil {
				t.Fatalf("decode initialize: %v", err)
			}
			if hello.ServerInfo.Name != "riskaudit" || hello.ServerInfo.Version != "test" {
				t.Errorf("serverInfo = %+v", hello.ServerInfo)
			}

			resp = conn.roundTrip(t, rpcRequest{JSONRPC: "2.0", ID: 2, Method: "tools/list"})
			if resp.Error != nil {
				t.Fatalf("tools/list: %s", resp.Error.Message)
			}
			var list struct {
				Tools []struct {
					Name string `json:"name"`
				} `json:"tools"`
			}
			if err := json.Unmarshal(resp.Result, &list); err != nil {
				t.Fatalf("decode tools/list: %v", err)
			}
			got := make(map[string]bool, len(list.Tools))
			for _, tool := range list.Tools {
				got[tool.Name] = true
			}
			for _, want := range []string{
				"importRequirementsFromCustomCSV",
				"calculateRisksByCatalog",
				"selectRequirementsForAudit",
				"markAsAudited",
				"getActiveSprint",
			} {
				if !got[want] {
					t.Errorf("tool %s not listed", want)
				}
			}
		})
	}
}
