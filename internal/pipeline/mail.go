package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jhillyerd/enmime"

	"pricelist/internal"
)

var mailAttachmentExts = map[string]bool{
	".csv": true, ".tsv": true, ".txt": true,
	".xlsx": true, ".xls": true,
	".pdf": true, ".html": true, ".htm": true,
}

// ProcessMail runs every price-list attachment of a fetched supplier mail
// through the standard file flow. The sender address is the supplier
// identity, so a stored template (or a learned mapping) applies to every
// later mail from the same supplier.
func (p *Processor) ProcessMail(ctx context.Context, mail internal.MailRow) ([]FileResult, error) {
	raw, err := os.ReadFile(mail.RawRef)
	if err != nil {
		return nil, err
	}

	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse mail %s: %w", mail.MessageID, err)
	}

	supplier := supplierFromSender(mail.Sender)
	requests := []FileRequest{}
	for _, att := range env.Attachments {
		filename := strings.TrimSpace(att.FileName)
		ext := strings.ToLower(extOf(filename))
		if !mailAttachmentExts[ext] {
			continue
		}
		requests = append(requests, FileRequest{
			Filename: filename,
			Content:  att.Content,
			Supplier: supplier,
			Origin:   "mail:" + mail.Provider,
		})
	}

	// Suppliers sometimes paste the list straight into the mail body.
	if len(requests) == 0 && strings.Contains(strings.ToLower(env.HTML), "<table") {
		requests = append(requests, FileRequest{
			Filename: "body.html",
			Content:  []byte(env.HTML),
			Supplier: supplier,
			Origin:   "mail:" + mail.Provider,
		})
	}

	if len(requests) == 0 {
		_ = p.db.UpdateMailStatus(mail.ID, "skipped")
		return nil, nil
	}

	results := p.ProcessBatch(ctx, requests)
	status := "processed"
	for _, r := range results {
		if r.Err != nil {
			status = "failed"
			break
		}
	}
	if err := p.db.UpdateMailStatus(mail.ID, status); err != nil {
		return results, err
	}
	return results, nil
}

// ProcessPendingMails drains fetched mails in order; one bad mail does not
// stop the rest.
func (p *Processor) ProcessPendingMails(ctx context.Context, limit int) (processed, offers int, err error) {
	pending, err := p.db.ListMailsByStatus("fetched", limit)
	if err != nil {
		return 0, 0, err
	}
	for _, mail := range pending {
		results, mailErr := p.ProcessMail(ctx, mail)
		if mailErr != nil {
			fmt.Printf("mail %s failed: %v\n", mail.MessageID, mailErr)
			_ = p.db.UpdateMailStatus(mail.ID, "failed")
			continue
		}
		processed++
		for _, r := range results {
			offers += r.Offers
		}
	}
	return processed, offers, nil
}

func supplierFromSender(sender string) string {
	s := strings.TrimSpace(sender)
	if start := strings.LastIndex(s, "<"); start >= 0 {
		if end := strings.Index(s[start:], ">"); end > 0 {
			s = s[start+1 : start+end]
		}
	}
	return strings.ToLower(strings.TrimSpace(s))
}

func extOf(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return ""
	}
	return filename[idx:]
}
