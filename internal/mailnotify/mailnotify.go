package mailnotify

import (
	"fmt"
	"io"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
)

// Session is per-task Scratch state (task.Scratch[Session]) holding a
// live IMAP connection across frames, so the notify_digest task doesn't
// reconnect every tick. Grounded on the teacher's long-lived per-task
// collaborators (e.g. BadgerDB held across a storage task's lifetime);
// emersion/go-imap's client.Client is the equivalent stateful handle
// here.
type Session struct {
	conn   *client.Client
	addr   string
	user   string
	pass   string
}

// Connect lazily dials and logs in to addr if not already connected.
func (s *Session) Connect(addr, user, pass string) error {
	if s.conn != nil {
		return nil
	}
	c, err := client.DialTLS(addr, nil)
	if err != nil {
		return fmt.Errorf("dial imap %s: %w", addr, err)
	}
	if err := c.Login(user, pass); err != nil {
		c.Close()
		return fmt.Errorf("imap login as %s: %w", user, err)
	}
	s.conn, s.addr, s.user, s.pass = c, addr, user, pass
	return nil
}

// Close terminates the underlying connection, if any.
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Logout()
	s.conn = nil
	return err
}

// UnseenSubjects selects mailbox and returns the subject line of every
// unseen message, parsing each envelope with go-message/mail so that
// MIME-encoded subjects come back decoded.
func (s *Session) UnseenSubjects(mailbox string) ([]string, error) {
	if s.conn == nil {
		return nil, fmt.Errorf("mailnotify: not connected")
	}

	if _, err := s.conn.Select(mailbox, false); err != nil {
		return nil, fmt.Errorf("select mailbox %s: %w", mailbox, err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	ids, err := s.conn.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("search unseen in %s: %w", mailbox, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(ids...)

	messages := make(chan *imap.Message, len(ids))
	section := &imap.BodySectionName{}
	done := make(chan error, 1)
	go func() {
		done <- s.conn.Fetch(seqSet, []imap.FetchItem{section.FetchItem()}, messages)
	}()

	var subjects []string
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		mr, err := mail.CreateReader(body)
		if err != nil {
			continue
		}
		subject, err := mr.Header.Subject()
		if err != nil {
			subject = mr.Header.Get("Subject")
		}
		subjects = append(subjects, subject)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetch unseen in %s: %w", mailbox, err)
	}
	return subjects, nil
}

var _ io.Closer = (*Session)(nil)
