package mockapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/waabox/constitutiongpt/internal/domain"
	"github.com/waabox/constitutiongpt/internal/logctx"
	"github.com/waabox/constitutiongpt/internal/redact"
)

const maxUploadBytes = 10 << 20

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errBadRequest
	}
	return nil
}

func userView(u *user) map[string]any {
	return map[string]any{
		"id":          u.ID,
		"username":    u.Username,
		"email":       u.Email,
		"role":        u.Role,
		"is_verified": u.IsVerified,
	}
}

func lawyerView(u user) map[string]any {
	return map[string]any{
		"id":          u.ID,
		"username":    u.Username,
		"email":       u.Email,
		"phone":       u.Phone,
		"address":     u.Address,
		"city":        u.City,
		"is_verified": u.IsVerified,
	}
}

func topicView(t topic) map[string]any {
	return map[string]any{
		"id":          t.ID,
		"title":       t.Title,
		"description": t.Description,
		"content":     t.Content,
		"created_at":  t.CreatedAt.UTC().Format(wireTime),
	}
}

func chatView(c chat) map[string]any {
	return map[string]any{
		"id":        c.ID,
		"message":   c.Message,
		"response":  c.Response,
		"timestamp": c.Timestamp.UTC().Format(wireTime),
	}
}

func (s *Server) appointmentView(a appointment) map[string]any {
	return map[string]any{
		"id":           a.ID,
		"user_id":      a.UserID,
		"username":     s.store.username(a.UserID),
		"lawyer_id":    a.LawyerID,
		"lawyer_name":  s.store.username(a.LawyerID),
		"scheduled_at": a.ScheduledAt.UTC().Format(wireTime),
		"description":  a.Description,
		"status":       a.Status,
		"created_at":   a.CreatedAt.UTC().Format(wireTime),
	}
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in newUser
	var role string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, r, errBadRequest)
			return
		}
		in = newUser{
			Username: r.FormValue("username"),
			Email:    r.FormValue("email"),
			Password: r.FormValue("password"),
			Phone:    r.FormValue("phone"),
			Address:  r.FormValue("address"),
			City:     r.FormValue("city"),
		}
		role = r.FormValue("role")
		if f, hdr, err := r.FormFile("lawyer_proof_file"); err == nil {
			in.ProofFile = hdr.Filename
			_ = f.Close()
		}
	} else {
		var req struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Password string `json:"password"`
			Role     string `json:"role"`
			Phone    string `json:"phone"`
			Address  string `json:"address"`
			City     string `json:"city"`
		}
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		in = newUser{
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password,
			Phone:    req.Phone,
			Address:  req.Address,
			City:     req.City,
		}
		role = req.Role
	}

	if in.Username == "" || in.Email == "" || in.Password == "" {
		writeError(w, r, newHTTPError(http.StatusBadRequest, "Username, email and password are required"))
		return
	}
	switch domain.Role(role) {
	case "", domain.RoleUser:
		in.Role = domain.RoleUser
	case domain.RoleLawyer:
		in.Role = domain.RoleLawyer
	default:
		writeError(w, r, newHTTPError(http.StatusBadRequest, "Invalid role"))
		return
	}

	u, err := s.store.createUser(in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logctx.From(r.Context()).Info("user registered",
		slog.String("user_id", u.ID),
		slog.String("email", redact.Email(u.Email)),
		slog.String("role", string(u.Role)),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "User registered successfully",
		"user_id": u.ID,
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.store.authenticate(req.Username, req.Password)
	if err != nil {
		logctx.From(r.Context()).Info("login rejected", slog.String("login", redact.Login(req.Username)))
		writeError(w, r, err)
		return
	}
	pair, err := s.tokens.issue(u, "")
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"message":       "Login successful",
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"user":          userView(u),
	})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decode(r, &req); err != nil || req.RefreshToken == "" {
		writeError(w, r, errInvalidRefreshToken)
		return
	}
	userID, family, err := s.tokens.rotate(req.RefreshToken)
	if err != nil {
		logctx.From(r.Context()).Warn("refresh rejected", slog.String("refresh_token", redact.Token(req.RefreshToken)))
		writeError(w, r, err)
		return
	}
	u, err := s.store.user(userID)
	if err != nil {
		writeError(w, r, errInvalidRefreshToken)
		return
	}
	pair, err := s.tokens.issue(u, family)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

func (s *Server) verifyToken(w http.ResponseWriter, r *http.Request) {
	c := claimsFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"valid": true,
		"user": map[string]any{
			"user_id":     c.UserID,
			"username":    c.Username,
			"role":        c.Role,
			"is_verified": c.IsVerified,
			"exp":         c.Expiry().Unix(),
		},
	})
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.NewPassword == "" {
		writeError(w, r, newHTTPError(http.StatusBadRequest, "New password is required"))
		return
	}
	if err := s.store.changePassword(claimsFrom(r.Context()).UserID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Password updated successfully"})
}

func (s *Server) ask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, r, newHTTPError(http.StatusBadRequest, "Message is required"))
		return
	}
	reply := s.answer(req.Message)
	s.store.saveChat(claimsFrom(r.Context()).UserID, req.Message, reply)
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

// answer replies from the topic catalogue. There is no language model behind
// the development server.
func (s *Server) answer(question string) string {
	for _, word := range strings.Fields(question) {
		word = strings.Trim(word, "?.,!;:'\"()")
		if len(word) < 4 {
			continue
		}
		if found := s.store.searchTopics(word); len(found) > 0 {
			return found[0].Title + ": " + found[0].Content
		}
	}
	return "I can answer questions about the Constitution of India and the 2023 criminal laws. " +
		"Try asking about Fundamental Rights, Parliament or the Judiciary."
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	chats := s.store.history(claimsFrom(r.Context()).UserID)
	out := make([]map[string]any, 0, len(chats))
	for _, c := range chats {
		out = append(out, chatView(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": out})
}

func (s *Server) getChat(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.chat(claimsFrom(r.Context()).UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatView(c))
}

func (s *Server) deleteChat(w http.ResponseWriter, r *http.Request) {
	if err := s.store.deleteChat(claimsFrom(r.Context()).UserID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Chat deleted successfully"})
}

func (s *Server) listTopics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"topics": topicsView(s.store.allTopics())})
}

func (s *Server) searchTopics(w http.ResponseWriter, r *http.Request) {
	query, err := url.PathUnescape(chi.URLParam(r, "query"))
	if err != nil {
		writeError(w, r, errBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": topicsView(s.store.searchTopics(query))})
}

func (s *Server) getTopic(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.topic(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, topicView(t))
}

func topicsView(ts []topic) []map[string]any {
	out := make([]map[string]any, 0, len(ts))
	for _, t := range ts {
		out = append(out, topicView(t))
	}
	return out
}

func lawyersView(us []user) []map[string]any {
	out := make([]map[string]any, 0, len(us))
	for _, u := range us {
		out = append(out, lawyerView(u))
	}
	return out
}

func (s *Server) listLawyers(w http.ResponseWriter, r *http.Request) {
	lawyers := s.store.lawyers(true, r.URL.Query().Get("city"))
	writeJSON(w, http.StatusOK, map[string]any{"lawyers": lawyersView(lawyers)})
}

func (s *Server) adminLawyers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"lawyers": lawyersView(s.store.lawyers(false, ""))})
}

func (s *Server) verifyLawyer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LawyerID   string `json:"lawyer_id"`
		IsVerified bool   `json:"is_verified"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.setVerified(req.LawyerID, req.IsVerified); err != nil {
		writeError(w, r, err)
		return
	}
	verb := "unverified"
	if req.IsVerified {
		verb = "verified"
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Lawyer " + verb + " successfully"})
}

func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReceiverID string `json:"receiver_id"`
		Message    string `json:"message"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, r, newHTTPError(http.StatusBadRequest, "Message is required"))
		return
	}
	m, err := s.store.sendMessage(claimsFrom(r.Context()).UserID, req.ReceiverID, req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message_id": m.ID})
}

func (s *Server) conversation(w http.ResponseWriter, r *http.Request) {
	msgs := s.store.conversation(claimsFrom(r.Context()).UserID, chi.URLParam(r, "id"))
	out := make([]map[string]any, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, map[string]any{
			"id":          m.ID,
			"sender_id":   m.SenderID,
			"receiver_id": m.ReceiverID,
			"message":     m.Text,
			"timestamp":   m.Timestamp.UTC().Format(wireTime),
			"is_read":     m.IsRead,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": out})
}

func (s *Server) inbox(w http.ResponseWriter, r *http.Request) {
	entries := s.store.inbox(claimsFrom(r.Context()).UserID)
	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]any{
			"other_user_id":  e.Other.ID,
			"other_username": e.Other.Username,
			"other_role":     e.Other.Role,
			"last_message":   e.LastMessage,
			"timestamp":      e.LastAt.UTC().Format(wireTime),
			"unread_count":   e.Unread,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": out})
}

func (s *Server) bookAppointment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LawyerID    string `json:"lawyer_id"`
		ScheduledAt string `json:"scheduled_at"`
		Description string `json:"description"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	at, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		writeError(w, r, newHTTPError(http.StatusBadRequest, "Invalid scheduled_at"))
		return
	}
	a, err := s.store.bookAppointment(claimsFrom(r.Context()).UserID, req.LawyerID, at, req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.appointmentView(*a))
}

func (s *Server) userAppointments(w http.ResponseWriter, r *http.Request) {
	s.writeAppointments(w, s.store.appointmentsFor(claimsFrom(r.Context()).UserID, false))
}

func (s *Server) lawyerAppointments(w http.ResponseWriter, r *http.Request) {
	s.writeAppointments(w, s.store.appointmentsFor(claimsFrom(r.Context()).UserID, true))
}

func (s *Server) writeAppointments(w http.ResponseWriter, as []appointment) {
	out := make([]map[string]any, 0, len(as))
	for _, a := range as {
		out = append(out, s.appointmentView(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": out})
}

func (s *Server) updateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	status := domain.AppointmentStatus(req.Status)
	if !status.Valid() {
		writeError(w, r, newHTTPError(http.StatusBadRequest, "Invalid status"))
		return
	}
	if err := s.store.setAppointmentStatus(claimsFrom(r.Context()).UserID, chi.URLParam(r, "id"), status); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
