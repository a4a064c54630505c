package server

import (
	"context"
	"net/http"

	"loot-tracker/internal/auth"
	"loot-tracker/internal/constants"
	"loot-tracker/internal/service"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Identity *auth.Identity `json:"identity"`
}

func (s *LootServer) currentSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, sessionResponse{Identity: s.sessions.Current()})
}

func (s *LootServer) login(w http.ResponseWriter, r *http.Request) {
	s.signInWith(w, r, s.sessions.Login)
}

func (s *LootServer) signup(w http.ResponseWriter, r *http.Request) {
	s.signInWith(w, r, s.sessions.Signup)
}

func (s *LootServer) signInWith(w http.ResponseWriter, r *http.Request, fn func(context.Context, string, string) (*auth.Identity, error)) {
	var body credentials
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), constants.RemoteTimeout)
	defer cancel()

	id, err := fn(ctx, body.Email, body.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Identity: id})
}

func (s *LootServer) guest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.RemoteTimeout)
	defer cancel()

	id, err := s.sessions.Guest(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Identity: id})
}

func (s *LootServer) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *LootServer) sync(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.SyncTimeout)
	defer cancel()

	if err := s.sessions.Sync(ctx); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *LootServer) listCharacters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.characters.List())
}

func (s *LootServer) createCharacter(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.characters.Create(r.Context(), body.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *LootServer) clearCharacters(w http.ResponseWriter, r *http.Request) {
	if err := s.characters.Clear(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *LootServer) deleteCharacter(w http.ResponseWriter, r *http.Request) {
	if err := s.characters.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *LootServer) listRuns(w http.ResponseWriter, r *http.Request) {
	kind, err := runKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := listQueryFrom(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	runs, err := s.runs.List(kind, q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *LootServer) logRun(w http.ResponseWriter, r *http.Request) {
	kind, err := runKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in service.LogRunInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	view, err := s.runs.LogRun(r.Context(), kind, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *LootServer) clearRuns(w http.ResponseWriter, r *http.Request) {
	kind, err := runKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.runs.Clear(r.Context(), kind); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *LootServer) updateRun(w http.ResponseWriter, r *http.Request) {
	kind, err := runKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch service.RunPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	view, err := s.runs.UpdateRun(r.Context(), kind, r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *LootServer) deleteRun(w http.ResponseWriter, r *http.Request) {
	kind, err := runKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.runs.Remove(r.Context(), kind, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *LootServer) report(w http.ResponseWriter, r *http.Request) {
	kind, err := runKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := reportQueryFrom(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := s.analytics.Report(kind, q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *LootServer) sharedLeaderboard(w http.ResponseWriter, r *http.Request) {
	kind, err := runKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), constants.RemoteTimeout)
	defer cancel()

	entries, err := s.analytics.SharedLeaderboard(ctx, kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *LootServer) catalogEntries(w http.ResponseWriter, r *http.Request) {
	kind, err := runKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	visible, err := s.visibility.Visible(r.Context(), kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	hidden, err := s.visibility.Hidden(r.Context(), kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries":  visible,
		"hidden":   hidden,
		"rarities": s.catalog.Rarities(),
	})
}

func (s *LootServer) toggleHidden(w http.ResponseWriter, r *http.Request) {
	kind, err := runKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	hidden, err := s.visibility.Toggle(r.Context(), kind, body.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": body.Name, "hidden": hidden})
}

func (s *LootServer) listBackups(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.BackupTimeout)
	defer cancel()

	objects, err := s.backups.List(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, objects)
}

func (s *LootServer) createBackup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.BackupTimeout)
	defer cancel()

	key, err := s.backups.Create(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"key": key})
}

func (s *LootServer) restoreBackup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.BackupTimeout)
	defer cancel()

	res, err := s.backups.Restore(ctx, r.PathValue("key"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
