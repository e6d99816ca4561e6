package service

import (
	"fmt"
	"net/smtp"
	"strings"

	"dao-tracker-backend/internal/logger"
	"dao-tracker-backend/internal/models"
)

// EmailConfig holds SMTP configuration
type EmailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// EmailService sends assignment and deadline notices over SMTP. When
// unconfigured every send is a silent no-op; outbound mail is always
// best-effort and never fails a request.
type EmailService struct {
	config EmailConfig
	auth   smtp.Auth
	log    *logger.Logger
}

// NewEmailService creates a new email service
func NewEmailService(config EmailConfig) *EmailService {
	var auth smtp.Auth
	if config.Username != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}
	return &EmailService{
		config: config,
		auth:   auth,
		log:    logger.New(),
	}
}

// IsConfigured returns true if email is configured
func (s *EmailService) IsConfigured() bool {
	return s.config.Host != "" && s.config.Port != "" && s.config.From != ""
}

// SendTaskAssigned notifies newly assigned members of a task.
func (s *EmailService) SendTaskAssigned(recipients []models.TeamMember, dao *models.Dao, task *models.Task) {
	subject := fmt.Sprintf("[%s] Nouvelle tache assignee: %s", dao.NumeroListe, task.Name)
	body := fmt.Sprintf(
		"Vous avez ete assigne a la tache %q du dossier %s (%s).\nDate de depot: %s.",
		task.Name, dao.NumeroListe, dao.ObjetDossier, dao.DateDepot.Format("02/01/2006"),
	)
	s.send(recipients, subject, body)
}

// SendDeadlineReminder warns the team that the submission date is close.
func (s *EmailService) SendDeadlineReminder(dao *models.Dao) {
	subject := fmt.Sprintf("[%s] Date de depot imminente", dao.NumeroListe)
	body := fmt.Sprintf(
		"La date de depot du dossier %s (%s) est le %s.",
		dao.NumeroListe, dao.ObjetDossier, dao.DateDepot.Format("02/01/2006"),
	)
	s.send(dao.Equipe, subject, body)
}

func (s *EmailService) send(members []models.TeamMember, subject, body string) {
	if !s.IsConfigured() {
		return
	}

	to := make([]string, 0, len(members))
	for i := range members {
		if members[i].Email != "" {
			to = append(to, members[i].Email)
		}
	}
	if len(to) == 0 {
		return
	}

	msg := []byte(fmt.Sprintf(
		"To: %s\r\n"+
			"From: %s\r\n"+
			"Subject: %s\r\n"+
			"Content-Type: text/plain; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		strings.Join(to, ", "),
		s.config.From,
		subject,
		body,
	))

	addr := s.config.Host + ":" + s.config.Port
	if err := smtp.SendMail(addr, s.auth, s.config.From, to, msg); err != nil {
		s.log.WithField("recipients", len(to)).Warnf("email send failed: %v", err)
	}
}
