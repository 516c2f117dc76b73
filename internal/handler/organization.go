package handler

import (
	"log/slog"
	"net/http"

	"github.com/dangerclosesec/agiletrack/internal/domain"
	"github.com/dangerclosesec/agiletrack/internal/middleware"
	"github.com/dangerclosesec/agiletrack/internal/service"
)

type OrganizationHandler struct {
	orgs   *service.OrganizationService
	logger *slog.Logger
}

func NewOrganizationHandler(orgs *service.OrganizationService, logger *slog.Logger) *OrganizationHandler {
	return &OrganizationHandler{orgs: orgs, logger: logger}
}

func (h *OrganizationHandler) Create(w http.ResponseWriter, r *http.Request) {
	c, ok := middleware.CallerFrom(r.Context())
	if !ok {
		handleError(w, r, h.logger, domain.ErrUnauthorized)
		return
	}

	var input service.CreateOrganizationInput
	if err := decodeJSON(r, &input); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	org, err := h.orgs.Create(r.Context(), service.Identity{UserID: c.UserID, Email: c.Email, Name: c.Name}, input)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, org)
}

func (h *OrganizationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	orgs, err := h.orgs.ListMine(r.Context(), userID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, orgs)
}

func (h *OrganizationHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := orgScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	org, err := h.orgs.Get(r.Context(), s.userID, s.slug)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, org)
}

func (h *OrganizationHandler) Update(w http.ResponseWriter, r *http.Request) {
	s, err := orgScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	var input service.UpdateOrganizationInput
	if err := decodeJSON(r, &input); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	org, err := h.orgs.Update(r.Context(), s.userID, s.slug, input)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, org)
}

func (h *OrganizationHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	s, err := orgScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	members, err := h.orgs.ListMembers(r.Context(), s.userID, s.slug)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, members)
}

func (h *OrganizationHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	s, err := orgScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	var input service.AddMemberInput
	if err := decodeJSON(r, &input); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	member, err := h.orgs.AddMember(r.Context(), s.userID, s.slug, input)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, member)
}

func (h *OrganizationHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	s, err := orgScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	memberID, err := urlUUID(r, "memberID")
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	var input service.UpdateMemberInput
	if err := decodeJSON(r, &input); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	member, err := h.orgs.UpdateMemberRole(r.Context(), s.userID, s.slug, memberID, input)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, member)
}

func (h *OrganizationHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	s, err := orgScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	memberID, err := urlUUID(r, "memberID")
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	if err := h.orgs.RemoveMember(r.Context(), s.userID, s.slug, memberID); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
