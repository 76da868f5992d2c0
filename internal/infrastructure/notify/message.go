package notify

import (
	"fmt"
	"time"

	"github.com/ech/backend/internal/domain/debt"
	"github.com/ech/backend/internal/domain/ledger"
	"github.com/ech/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Group names
const (
	GlobalGroup        = "caisse_notifications"
	projectGroupPrefix = "project_caisse_"
)

// ProjectGroup returns the group receiving the movements of one project
func ProjectGroup(projectID string) string {
	return projectGroupPrefix + projectID
}

// Message types sent to clients
const (
	TypeCaisseOperation        = "caisse_operation"
	TypeProjectCaisseOperation = "project_caisse_operation"
	TypeBalanceAdjustment      = "balance_adjustment"
	TypeDebtSettled            = "debt_settled"
	TypeCaisseStatus           = "caisse_status"
	TypeSubscriptionSuccess    = "subscription_success"
	TypeUnsubscriptionSuccess  = "unsubscription_success"
	TypeError                  = "error"
)

// Message types accepted from clients
const (
	ClientSubscribeProject   = "subscribe_project"
	ClientUnsubscribeProject = "unsubscribe_project"
	ClientGetStatus          = "get_status"
)

// Message is the JSON frame pushed to websocket clients
type Message struct {
	Type          string     `json:"type"`
	OperationType string     `json:"operation_type,omitempty"`
	Amount        string     `json:"amount,omitempty"`
	Description   string     `json:"description,omitempty"`
	BalanceBefore string     `json:"balance_before,omitempty"`
	BalanceAfter  string     `json:"balance_after,omitempty"`
	User          string     `json:"user,omitempty"`
	Timestamp     *time.Time `json:"timestamp,omitempty"`
	ProjectName   string     `json:"project_name,omitempty"`
	ProjectID     string     `json:"project_id,omitempty"`
	DebtID        string     `json:"debt_id,omitempty"`
	Reference     string     `json:"reference,omitempty"`
	Message       string     `json:"message,omitempty"`
	GlobalCaisse  *Status    `json:"global_caisse,omitempty"`
}

// Status is the register snapshot sent on connect and on get_status
type Status struct {
	TotalAmount string     `json:"total_amount"`
	LastUpdated *time.Time `json:"last_updated"`
}

// clientMessage is a frame received from a client
type clientMessage struct {
	Type      string `json:"type"`
	ProjectID string `json:"project_id"`
}

// delivery is one message and the groups it goes to
type delivery struct {
	groups []string
	msg    Message
}

// translate maps a domain event to the frames clients receive. ok is false
// for events that produce no notification.
func translate(event shared.DomainEvent) (delivery, bool) {
	ts := event.OccurredAt()
	switch e := event.(type) {
	case *ledger.CashOperationRecordedEvent:
		user := e.UserName
		if user == "" {
			user = "Système"
		}
		msg := Message{
			Type:          TypeCaisseOperation,
			OperationType: string(e.OperationType),
			Amount:        e.Amount.String(),
			Description:   e.Description,
			BalanceBefore: e.BalanceBefore.String(),
			BalanceAfter:  e.BalanceAfter.String(),
			User:          user,
			Timestamp:     &ts,
			ProjectName:   e.ProjectName,
			Reference:     e.Reference,
			Message:       operationText(e),
		}
		if e.DebtID != nil {
			msg.DebtID = e.DebtID.String()
		}
		groups := []string{GlobalGroup}
		if e.ProjectID != nil {
			msg.Type = TypeProjectCaisseOperation
			msg.ProjectID = e.ProjectID.String()
			groups = append(groups, ProjectGroup(msg.ProjectID))
		}
		return delivery{groups: groups, msg: msg}, true

	case *ledger.CashBalanceAdjustedEvent:
		user := e.UserName
		if user == "" {
			user = "Système"
		}
		return delivery{groups: []string{GlobalGroup}, msg: Message{
			Type:          TypeBalanceAdjustment,
			OperationType: string(ledger.ActionBalanceAdjustment),
			Amount:        e.BalanceAfter.Sub(e.BalanceBefore).String(),
			Description:   e.Description,
			BalanceBefore: e.BalanceBefore.String(),
			BalanceAfter:  e.BalanceAfter.String(),
			User:          user,
			Timestamp:     &ts,
			Reference:     e.Reference,
			Message:       fmt.Sprintf("Solde ajusté à %s DA", e.BalanceAfter),
		}}, true

	case *debt.DebtSettledEvent:
		groups := []string{GlobalGroup}
		return delivery{groups: groups, msg: Message{
			Type:      TypeDebtSettled,
			Amount:    e.Original.String(),
			Timestamp: &ts,
			DebtID:    e.AggregateID().String(),
			Message:   fmt.Sprintf("Dette envers %s soldée", e.CreditorName),
		}}, true
	}
	return delivery{}, false
}

func operationText(e *ledger.CashOperationRecordedEvent) string {
	verb := "Encaissement"
	if e.OperationType == ledger.OperationDebit {
		verb = "Décaissement"
	}
	if e.ProjectName != "" {
		return fmt.Sprintf("%s de %s DA - %s", verb, e.Amount, e.ProjectName)
	}
	return fmt.Sprintf("%s de %s DA", verb, e.Amount)
}

// validProjectID rejects group names that are not project identifiers
func validProjectID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
