package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ech/backend/internal/domain/debt"
	"github.com/ech/backend/internal/domain/ledger"
	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fixedBalance(amount string) BalanceFunc {
	updated := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return func(context.Context) (valueobject.Money, time.Time, error) {
		return valueobject.MustMoney(amount), updated, nil
	}
}

func newTestServer(t *testing.T, hub *Hub) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeClient(w, r, "cashier")
	}))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func operationEvent(projectID *uuid.UUID, projectName string) *ledger.CashOperationRecordedEvent {
	return &ledger.CashOperationRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(ledger.EventTypeCashOperationRecorded, ledger.AggregateTypeCashAccount, uuid.New()),
		OperationID:     uuid.New(),
		OperationType:   ledger.OperationDebit,
		Amount:          valueobject.MustMoney("300.00"),
		BalanceBefore:   valueobject.MustMoney("1000.00"),
		BalanceAfter:    valueobject.MustMoney("700.00"),
		Description:     "Ciment",
		Reference:       "OP002",
		ProjectID:       projectID,
		ProjectName:     projectName,
	}
}

func TestHub_SendsStatusOnConnect(t *testing.T) {
	hub := NewHub(Config{}, fixedBalance("1500.5"), zap.NewNop())
	conn := dial(t, newTestServer(t, hub))

	msg := readMessage(t, conn)
	assert.Equal(t, TypeCaisseStatus, msg.Type)
	require.NotNil(t, msg.GlobalCaisse)
	assert.Equal(t, "1500.50", msg.GlobalCaisse.TotalAmount)
	require.NotNil(t, msg.GlobalCaisse.LastUpdated)

	assert.Eventually(t, func() bool { return hub.GroupSize(GlobalGroup) == 1 }, time.Second, 5*time.Millisecond)
}

func TestHub_StatusFallsBackToZeroWhenBalanceFails(t *testing.T) {
	hub := NewHub(Config{}, func(context.Context) (valueobject.Money, time.Time, error) {
		return valueobject.Money{}, time.Time{}, errors.New("db down")
	}, zap.NewNop())
	conn := dial(t, newTestServer(t, hub))

	msg := readMessage(t, conn)
	assert.Equal(t, TypeCaisseStatus, msg.Type)
	assert.Equal(t, "0.00", msg.GlobalCaisse.TotalAmount)
	assert.Nil(t, msg.GlobalCaisse.LastUpdated)
}

func TestHub_BroadcastsOperationToGlobalGroup(t *testing.T) {
	hub := NewHub(Config{}, fixedBalance("0"), zap.NewNop())
	conn := dial(t, newTestServer(t, hub))
	readMessage(t, conn)

	require.NoError(t, hub.Handle(context.Background(), operationEvent(nil, "")))

	msg := readMessage(t, conn)
	assert.Equal(t, TypeCaisseOperation, msg.Type)
	assert.Equal(t, "debit", msg.OperationType)
	assert.Equal(t, "300.00", msg.Amount)
	assert.Equal(t, "1000.00", msg.BalanceBefore)
	assert.Equal(t, "700.00", msg.BalanceAfter)
	assert.Equal(t, "Système", msg.User)
	assert.Equal(t, "OP002", msg.Reference)
	assert.NotNil(t, msg.Timestamp)
}

func TestHub_ProjectSubscription(t *testing.T) {
	hub := NewHub(Config{}, fixedBalance("0"), zap.NewNop())
	url := newTestServer(t, hub)
	subscriber := dial(t, url)
	other := dial(t, url)
	readMessage(t, subscriber)
	readMessage(t, other)

	projectID := uuid.New()
	require.NoError(t, subscriber.WriteJSON(map[string]string{
		"type":       ClientSubscribeProject,
		"project_id": projectID.String(),
	}))
	ack := readMessage(t, subscriber)
	assert.Equal(t, TypeSubscriptionSuccess, ack.Type)
	assert.Equal(t, 1, hub.GroupSize(ProjectGroup(projectID.String())))

	require.NoError(t, hub.Handle(context.Background(), operationEvent(&projectID, "Villa Oran")))

	// The subscriber is in both groups but receives the frame once
	msg := readMessage(t, subscriber)
	assert.Equal(t, TypeProjectCaisseOperation, msg.Type)
	assert.Equal(t, projectID.String(), msg.ProjectID)
	assert.Equal(t, "Villa Oran", msg.ProjectName)

	msg = readMessage(t, other)
	assert.Equal(t, TypeProjectCaisseOperation, msg.Type)

	require.NoError(t, subscriber.WriteJSON(map[string]string{"type": ClientGetStatus}))
	assert.Equal(t, TypeCaisseStatus, readMessage(t, subscriber).Type)

	require.NoError(t, subscriber.WriteJSON(map[string]string{
		"type":       ClientUnsubscribeProject,
		"project_id": projectID.String(),
	}))
	assert.Equal(t, TypeUnsubscriptionSuccess, readMessage(t, subscriber).Type)
	assert.Equal(t, 0, hub.GroupSize(ProjectGroup(projectID.String())))
}

func TestHub_RejectsBadClientMessages(t *testing.T) {
	hub := NewHub(Config{}, fixedBalance("0"), zap.NewNop())
	conn := dial(t, newTestServer(t, hub))
	readMessage(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	msg := readMessage(t, conn)
	assert.Equal(t, TypeError, msg.Type)
	assert.Equal(t, "Invalid JSON format", msg.Message)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": ClientSubscribeProject, "project_id": "../admin"}))
	assert.Equal(t, TypeError, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "dance"}))
	assert.Equal(t, TypeError, readMessage(t, conn).Type)
}

func TestHub_MaxClients(t *testing.T) {
	hub := NewHub(Config{MaxClients: 1}, fixedBalance("0"), zap.NewNop())
	url := newTestServer(t, hub)
	first := dial(t, url)
	readMessage(t, first)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHub_RejectsForeignOrigin(t *testing.T) {
	hub := NewHub(Config{AllowedOrigins: []string{"https://caisse.example.dz"}}, fixedBalance("0"), zap.NewNop())
	url := newTestServer(t, hub)

	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "https://caisse.example.dz")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	_ = conn.Close()
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub := NewHub(Config{}, fixedBalance("0"), zap.NewNop())
	conn := dial(t, newTestServer(t, hub))
	readMessage(t, conn)
	require.Equal(t, 1, hub.ClientCount())

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, hub.GroupSize(GlobalGroup))
}

func TestHub_CloseRefusesNewClients(t *testing.T) {
	hub := NewHub(Config{}, fixedBalance("0"), zap.NewNop())
	url := newTestServer(t, hub)
	conn := dial(t, url)
	readMessage(t, conn)

	hub.Close()
	assert.Equal(t, 0, hub.ClientCount())

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestTranslate(t *testing.T) {
	t.Run("adjustment goes to the global group", func(t *testing.T) {
		userID := uuid.New()
		event := &ledger.CashBalanceAdjustedEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(ledger.EventTypeCashBalanceAdjusted, ledger.AggregateTypeCashAccount, uuid.New()),
			BalanceBefore:   valueobject.MustMoney("100.00"),
			BalanceAfter:    valueobject.MustMoney("80.00"),
			Description:     "Inventaire",
			UserID:          &userID,
			UserName:        "Amine B.",
		}
		d, ok := translate(event)
		require.True(t, ok)
		assert.Equal(t, []string{GlobalGroup}, d.groups)
		assert.Equal(t, TypeBalanceAdjustment, d.msg.Type)
		assert.Equal(t, "-20.00", d.msg.Amount)
		assert.Equal(t, "Amine B.", d.msg.User)
	})

	t.Run("settled debt", func(t *testing.T) {
		event := &debt.DebtSettledEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(debt.EventTypeDebtSettled, debt.AggregateTypeDebt, uuid.New()),
			CreditorName:    "Karim",
			Original:        valueobject.MustMoney("500.00"),
		}
		d, ok := translate(event)
		require.True(t, ok)
		assert.Equal(t, TypeDebtSettled, d.msg.Type)
		assert.Equal(t, event.AggregateID().String(), d.msg.DebtID)
		assert.Contains(t, d.msg.Message, "Karim")
	})

	t.Run("project operation goes to both groups", func(t *testing.T) {
		projectID := uuid.New()
		d, ok := translate(operationEvent(&projectID, "Villa"))
		require.True(t, ok)
		assert.Equal(t, []string{GlobalGroup, ProjectGroup(projectID.String())}, d.groups)
		assert.Equal(t, "Décaissement de 300.00 DA - Villa", d.msg.Message)
	})

	t.Run("other events are ignored", func(t *testing.T) {
		event := &debt.DebtCreatedEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(debt.EventTypeDebtCreated, debt.AggregateTypeDebt, uuid.New()),
		}
		_, ok := translate(event)
		assert.False(t, ok)
	})
}
