package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/OmarVCRZ/theSobieCo/internal/config"
	"github.com/OmarVCRZ/theSobieCo/internal/crypto"
	"github.com/OmarVCRZ/theSobieCo/internal/mail"
	"github.com/OmarVCRZ/theSobieCo/internal/model"
	"github.com/OmarVCRZ/theSobieCo/internal/repository"
	"github.com/OmarVCRZ/theSobieCo/internal/session"
)

const sessionCookie = "sobie_session"

type Server struct {
	cfg      config.Config
	store    repository.Directory
	sessions *session.Manager
	cookies  *session.CookieCodec
	mailer   mail.Dispatcher
	logger   *slog.Logger
}

func NewServer(cfg config.Config, store repository.Directory, sessions *session.Manager, mailer mail.Dispatcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:      cfg,
		store:    store,
		sessions: sessions,
		cookies:  session.NewCookieCodec(cfg.SessionSecret),
		mailer:   mailer,
		logger:   logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusOK, "ok")
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/login", s.handleLoginPage)
	r.Get("/signup", s.handleSignupPage)
	r.Post("/signup", s.handleSignup)
	r.Post("/login", s.handleLogin)
	r.Get("/verify", s.handleVerify)

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)
		r.Get("/user-dashboard", s.handleUserDashboard)
		r.Get("/admin-dashboard", s.handleAdminDashboard)
		r.Get("/profile", s.handleProfilePage)
		r.Post("/profile", s.handleUpdateProfile)
		r.Get("/submit-research", s.handleResearchPage)
		r.Post("/submit-research", s.handleSubmitResearch)
		r.Post("/logout", s.handleLogout)
	})

	return r
}

func (s *Server) handleLoginPage(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "Log in with your email and password. POST /login {email, password}")
}

func (s *Server) handleSignupPage(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "Register for SOBIE. POST /signup {email, username, password, role}")
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid form data.")
		return
	}
	email := strings.TrimSpace(strings.ToLower(r.PostFormValue("email")))
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	role := strings.TrimSpace(strings.ToLower(r.PostFormValue("role")))

	if email == "" || username == "" || password == "" || role == "" {
		writeText(w, http.StatusBadRequest, "All fields are required.")
		return
	}
	if !model.ValidRole(role) {
		writeText(w, http.StatusBadRequest, "Invalid role.")
		return
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		s.serverError(w, "hash password", err)
		return
	}
	token, err := crypto.NewVerificationToken()
	if err != nil {
		s.serverError(w, "issue token", err)
		return
	}

	now := time.Now().UTC()
	account := model.Account{
		ID:                uuid.NewString(),
		Username:          username,
		Email:             email,
		PasswordHash:      hash,
		Role:              role,
		VerificationToken: &token,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.CreateAccount(r.Context(), account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			writeText(w, http.StatusOK, "Email is already registered.")
			return
		}
		s.serverError(w, "create account", err)
		return
	}

	s.dispatchMail(r.Context(), email, "SOBIE Email Verification",
		"Click this link to verify your account:\n\n"+s.verifyLink(token))
	s.markPending(w, r, email)
	http.Redirect(w, r, "/verify", http.StatusSeeOther)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid form data.")
		return
	}
	email := strings.TrimSpace(strings.ToLower(r.PostFormValue("email")))
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		writeText(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	// Credentials are checked before any token work so an unknown email
	// and a wrong password are indistinguishable to the caller.
	account, err := s.store.GetAccountByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeText(w, http.StatusOK, "Invalid Email or Password")
			return
		}
		s.serverError(w, "lookup account", err)
		return
	}
	if err := crypto.CheckPassword(account.PasswordHash, password); err != nil {
		writeText(w, http.StatusOK, "Invalid Email or Password")
		return
	}

	token, err := crypto.NewVerificationToken()
	if err != nil {
		s.serverError(w, "issue token", err)
		return
	}
	// Overwrites any outstanding token, including an unconsumed signup
	// confirmation. One challenge slot per account, last issued wins.
	if err := s.store.SetVerificationToken(r.Context(), account.ID, token); err != nil {
		s.serverError(w, "store token", err)
		return
	}

	s.dispatchMail(r.Context(), email, "SOBIE Login Verification",
		"Click this link to log in securely:\n\n"+s.verifyLink(token))
	s.markPending(w, r, email)
	http.Redirect(w, r, "/verify", http.StatusSeeOther)
}

// handleVerify is both the verification-pending page (no token param)
// and the transition endpoint the emailed link points at.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if sid, ok := s.readCookie(r); ok {
			if email, err := s.sessions.Pending(r.Context(), sid); err == nil {
				writeText(w, http.StatusOK, fmt.Sprintf("A verification link was sent to %s. Check your email.", email))
				return
			}
		}
		writeText(w, http.StatusOK, "Check your email for a verification link.")
		return
	}

	account, err := s.store.ConsumeToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeText(w, http.StatusOK, "Invalid Link")
			return
		}
		s.serverError(w, "consume token", err)
		return
	}

	sid, err := s.sessions.Create(r.Context(), account.ID)
	if err != nil {
		s.serverError(w, "create session", err)
		return
	}
	if old, ok := s.readCookie(r); ok {
		_ = s.sessions.ClearPending(r.Context(), old)
	}
	s.setCookie(w, sid)

	if account.Role == model.RoleAdmin {
		http.Redirect(w, r, "/admin-dashboard", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/user-dashboard", http.StatusFound)
}

func (s *Server) handleUserDashboard(w http.ResponseWriter, r *http.Request) {
	account, ok := s.currentAccount(w, r)
	if !ok {
		return
	}
	writeText(w, http.StatusOK, fmt.Sprintf("Welcome to SOBIE, %s (%s)", account.Username, account.Role))
}

func (s *Server) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	account, ok := s.currentAccount(w, r)
	if !ok {
		return
	}
	if account.Role != model.RoleAdmin {
		http.Redirect(w, r, "/user-dashboard", http.StatusSeeOther)
		return
	}
	writeText(w, http.StatusOK, fmt.Sprintf("SOBIE Admin Dashboard — %s", account.Username))
}

func (s *Server) handleProfilePage(w http.ResponseWriter, r *http.Request) {
	account, ok := s.currentAccount(w, r)
	if !ok {
		return
	}
	writeText(w, http.StatusOK, fmt.Sprintf("Profile: %s <%s> role=%s", account.Username, account.Email, account.Role))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	sc := sessionFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid form data.")
		return
	}
	username := strings.TrimSpace(r.PostFormValue("username"))
	if username == "" {
		writeText(w, http.StatusBadRequest, "Username is required.")
		return
	}
	if err := s.store.UpdateUsername(r.Context(), sc.AccountID, username); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeText(w, http.StatusOK, "User Does Not Exist")
			return
		}
		s.serverError(w, "update username", err)
		return
	}
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func (s *Server) handleResearchPage(w http.ResponseWriter, r *http.Request) {
	account, ok := s.currentAccount(w, r)
	if !ok {
		return
	}
	if !account.HasResearch {
		writeText(w, http.StatusOK, "No research submitted yet. POST /submit-research {researchTitle, researchAbstract, sessionPreference, coAuthors}")
		return
	}
	writeText(w, http.StatusOK, fmt.Sprintf("Research: %q by %s (co-authors: %s)",
		account.ResearchTitle, account.Username, strings.Join(account.CoAuthors, ", ")))
}

func (s *Server) handleSubmitResearch(w http.ResponseWriter, r *http.Request) {
	sc := sessionFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid form data.")
		return
	}
	research := model.Research{
		Title:             strings.TrimSpace(r.PostFormValue("researchTitle")),
		Abstract:          strings.TrimSpace(r.PostFormValue("researchAbstract")),
		SessionPreference: strings.TrimSpace(r.PostFormValue("sessionPreference")),
		CoAuthors:         splitCoAuthors(r.PostFormValue("coAuthors")),
	}
	if research.Title == "" || research.Abstract == "" {
		writeText(w, http.StatusBadRequest, "Research title and abstract are required.")
		return
	}
	if err := s.store.UpdateResearch(r.Context(), sc.AccountID, research); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeText(w, http.StatusOK, "User Does Not Exist")
			return
		}
		s.serverError(w, "update research", err)
		return
	}
	writeText(w, http.StatusOK, "Research Submitted Successfully.")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sc := sessionFromContext(r.Context())
	if err := s.sessions.Delete(r.Context(), sc.SID); err != nil {
		s.logger.Error("session delete failed", "error", err)
	}
	s.clearCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// SessionContext carries the authenticated binding for one request.
type SessionContext struct {
	SID       string
	AccountID string
}

type sessionContextKey struct{}

func sessionFromContext(ctx context.Context) *SessionContext {
	value := ctx.Value(sessionContextKey{})
	sc, _ := value.(*SessionContext)
	return sc
}

// requireSession redirects to /login unless the request carries a
// validly signed cookie whose session is bound to an account.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid, ok := s.readCookie(r)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		accountID, err := s.sessions.Get(r.Context(), sid)
		if err != nil {
			if errors.Is(err, session.ErrNoSession) {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			s.serverError(w, "read session", err)
			return
		}
		ctx := context.WithValue(r.Context(), sessionContextKey{}, &SessionContext{SID: sid, AccountID: accountID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentAccount loads the session's account. A session whose account
// vanished is reported, not treated as a crash.
func (s *Server) currentAccount(w http.ResponseWriter, r *http.Request) (model.Account, bool) {
	sc := sessionFromContext(r.Context())
	account, err := s.store.GetAccountByID(r.Context(), sc.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeText(w, http.StatusOK, "User Does Not Exist")
			return model.Account{}, false
		}
		s.serverError(w, "load account", err)
		return model.Account{}, false
	}
	return account, true
}

// dispatchMail is fire-and-forget: a delivery failure is logged for
// operators and never rolls back the transition that triggered it.
func (s *Server) dispatchMail(ctx context.Context, to, subject, body string) {
	if err := s.mailer.Send(ctx, to, subject, body); err != nil {
		s.logger.Error("mail delivery failed", "to", to, "subject", subject, "error", err)
	}
}

// markPending correlates the client to its outstanding challenge. The
// marker lives under a session id that is not yet bound to an account.
func (s *Server) markPending(w http.ResponseWriter, r *http.Request, email string) {
	sid, ok := s.readCookie(r)
	if !ok {
		var err error
		sid, err = session.NewID()
		if err != nil {
			s.logger.Error("pending marker id failed", "error", err)
			return
		}
		s.setCookie(w, sid)
	}
	if err := s.sessions.MarkPending(r.Context(), sid, email); err != nil {
		s.logger.Error("pending marker store failed", "error", err)
	}
}

func (s *Server) verifyLink(token string) string {
	return s.cfg.BaseURL + "/verify?token=" + token
}

func (s *Server) readCookie(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return "", false
	}
	return s.cookies.Decode(cookie.Value)
}

func (s *Server) setCookie(w http.ResponseWriter, sid string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    s.cookies.Encode(sid),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	s.logger.Error("server error", "op", op, "error", err)
	writeText(w, http.StatusInternalServerError, "Server Error")
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg + "\n"))
}

func splitCoAuthors(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	coAuthors := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			coAuthors = append(coAuthors, name)
		}
	}
	return coAuthors
}
