package worker

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"gorm.io/gorm"

	"leadflow/config"
	"leadflow/models"
	"leadflow/orchestrator"
)

// ReplyWorker polls the shared inbox over IMAP and turns unseen messages from
// known contacts into replied responses on their active enrollments. A reply
// is the strongest engagement signal, so it both advances the sequence and
// updates channel preferences.
type ReplyWorker struct {
	DB       *gorm.DB
	Service  *orchestrator.Service
	IMAP     config.IMAPConfig
	Interval time.Duration
	Logger   *log.Logger
}

func NewReplyWorker(db *gorm.DB, svc *orchestrator.Service, imapCfg config.IMAPConfig,
	interval time.Duration, logger *log.Logger) *ReplyWorker {
	return &ReplyWorker{
		DB:       db,
		Service:  svc,
		IMAP:     imapCfg,
		Interval: interval,
		Logger:   logger,
	}
}

func (rw *ReplyWorker) Start(ctx context.Context) {
	rw.Logger.Println("Reply worker started")

	ticker := time.NewTicker(rw.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			rw.Logger.Println("Reply worker shutting down...")
			return
		case <-ticker.C:
			if err := rw.fetchReplies(); err != nil {
				rw.Logger.Printf("Error fetching replies: %v", err)
			}
		}
	}
}

func (rw *ReplyWorker) fetchReplies() error {
	imapAddr := fmt.Sprintf("%s:%d", rw.IMAP.Host, rw.IMAP.Port)
	imapClient, err := client.DialTLS(imapAddr, &tls.Config{
		ServerName: rw.IMAP.Host,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to IMAP server: %v", err)
	}
	defer imapClient.Logout()

	if err := imapClient.Login(rw.IMAP.Username, rw.IMAP.Password); err != nil {
		return fmt.Errorf("failed to login to IMAP server: %v", err)
	}

	if _, err := imapClient.Select("INBOX", false); err != nil {
		return fmt.Errorf("failed to select mailbox: %v", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{"\\Seen"}
	ids, err := imapClient.Search(criteria)
	if err != nil {
		return fmt.Errorf("failed to search messages: %v", err)
	}
	if len(ids) == 0 {
		return nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)

	go func() {
		done <- imapClient.Fetch(seqset, []imap.FetchItem{imap.FetchEnvelope, imap.FetchItem("BODY.PEEK[]")}, messages)
	}()

	for msg := range messages {
		if err := rw.processReply(msg); err != nil {
			rw.Logger.Printf("Failed to process message %d: %v", msg.SeqNum, err)
			continue
		}
	}

	if err := <-done; err != nil {
		return fmt.Errorf("error during fetch: %v", err)
	}
	return nil
}

func (rw *ReplyWorker) processReply(msg *imap.Message) error {
	if msg.Envelope == nil || len(msg.Envelope.From) == 0 {
		return nil
	}
	from := strings.ToLower(msg.Envelope.From[0].Address())

	var contact models.Contact
	if err := rw.DB.Where("email = ?", from).First(&contact).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			// not a tracked lead
			return nil
		}
		return fmt.Errorf("failed to look up contact: %v", err)
	}

	body, err := extractTextBody(msg)
	if err != nil {
		rw.Logger.Printf("Failed to parse body from %s: %v", from, err)
	}

	enrollments, err := rw.Service.ActiveEnrollmentsForContact(contact.ID)
	if err != nil {
		return fmt.Errorf("failed to list enrollments: %v", err)
	}

	for _, e := range enrollments {
		recorded, err := rw.Service.RecordResponse(e.ID, models.ResponseReplied, body, nil)
		if err != nil {
			rw.Logger.Printf("Failed to record reply on enrollment %d: %v", e.ID, err)
			continue
		}
		if recorded {
			rw.Logger.Printf("Recorded reply from %s on enrollment %d", from, e.ID)
		}
	}
	return nil
}

func extractTextBody(msg *imap.Message) (string, error) {
	if msg.Body == nil {
		return "", nil
	}

	// GetBody matches sections by value; indexing the map directly with a new
	// *BodySectionName never hits the key stored by the fetch response.
	section := imap.BodySectionName{}
	literal := msg.GetBody(&section)
	if literal == nil {
		return "", fmt.Errorf("message body not found")
	}

	mr, err := mail.CreateReader(literal)
	if err != nil {
		return "", fmt.Errorf("failed to create message reader: %v", err)
	}

	var bodyText, bodyHTML string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		} else if err != nil {
			return "", fmt.Errorf("failed to read next part: %v", err)
		}

		if h, ok := p.Header.(*mail.InlineHeader); ok {
			contentType, _, _ := h.ContentType()
			b, err := io.ReadAll(p.Body)
			if err != nil {
				return "", fmt.Errorf("failed to read body: %v", err)
			}
			if strings.Contains(contentType, "text/plain") {
				bodyText = string(b)
			} else if strings.Contains(contentType, "text/html") {
				bodyHTML = string(b)
			}
		}
	}

	if bodyText != "" {
		return bodyText, nil
	}
	return bodyHTML, nil
}
