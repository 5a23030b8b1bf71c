package email

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

type SMTPNotifier struct {
	host   string
	port   int
	from   string
	logger *zap.Logger
}

func NewSMTPNotifier(host string, port int, from string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{host: host, port: port, from: from, logger: logger}
}

func (n *SMTPNotifier) NotifyFailure(_ context.Context, email string, jobID string, postID int64, errorMsg string) error {
	addr := fmt.Sprintf("%s:%d", n.host, n.port)

	subject := fmt.Sprintf("rep0st - Media Indexing Failed [Job %s]", jobID)
	body := fmt.Sprintf(
		"Hello,\r\n\r\n"+
			"Indexing the media of a post has permanently failed after all retry attempts.\r\n\r\n"+
			"Job ID: %s\r\n"+
			"Post: %d\r\n"+
			"Error: %s\r\n\r\n"+
			"The post will not be searchable until it is re-indexed.\r\n\r\n"+
			"-- rep0st media worker",
		jobID, postID, errorMsg,
	)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		n.from, email, subject, body,
	)

	err := smtp.SendMail(addr, nil, n.from, []string{email}, []byte(msg))
	if err != nil {
		n.logger.Error("failed to send failure notification email",
			zap.String("to", email),
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("failure notification email sent",
		zap.String("to", email),
		zap.String("job_id", jobID),
	)
	return nil
}
