package connectors

import "pricelist/internal"

// MailConnector fetches raw supplier mails from a mailbox.
type MailConnector interface {
	FetchInbox(label string, max int) ([]internal.FetchedMailMessage, error)
}
