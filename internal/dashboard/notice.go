package dashboard

import (
	"errors"
	"fmt"

	"github.com/agozel5/Honeypot/internal/client"
)

// Messages shown to the operator.
const (
	PromptDeleteFromLogs  = "Voulez-vous vraiment supprimer ce lien et ses clics associés ?"
	PromptDeleteFromIndex = "Supprimer ce lien et tous ses clics ?"

	MsgDeleteRejected = "Erreur lors de la suppression"
	MsgNetwork        = "Erreur réseau ou serveur"
	MsgProtocol       = "Réponse inattendue du serveur"
)

// Notifier shows a notice and returns once the operator has acknowledged it.
type Notifier interface {
	Notify(msg string)
}

type NotifierFunc func(msg string)

func (f NotifierFunc) Notify(msg string) { f(msg) }

// ConfirmFunc asks the operator a yes/no question and blocks for the answer.
type ConfirmFunc func(prompt string) bool

// AutoConfirm approves every prompt.
func AutoConfirm(string) bool { return true }

// DeletedMessage is the notice shown after a link was deleted from the log view.
func DeletedMessage(linkID string) string {
	return fmt.Sprintf("Lien %s supprimé avec succès", linkID)
}

// FailureMessage maps a client error to the notice the operator sees.
func FailureMessage(err error) string {
	var (
		rejected *client.DeleteRejected
		netErr   *client.NetworkError
		protoErr *client.ProtocolError
	)
	switch {
	case errors.As(err, &rejected):
		return MsgDeleteRejected
	case errors.As(err, &netErr):
		return MsgNetwork
	case errors.As(err, &protoErr):
		if protoErr.Status >= 500 {
			return MsgNetwork
		}
		return MsgProtocol
	}
	return fmt.Sprintf("Erreur: %v", err)
}
