package handler

import (
	"net/http"

	"github.com/dangerclosesec/studygroups/internal/model"
	"github.com/dangerclosesec/studygroups/internal/serializer"
	"github.com/dangerclosesec/studygroups/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type GroupHandler struct {
	groups    *service.MembershipService
	presenter *serializer.Presenter
}

func NewGroupHandler(groups *service.MembershipService, presenter *serializer.Presenter) *GroupHandler {
	return &GroupHandler{
		groups:    groups,
		presenter: presenter,
	}
}

// Routes mounts the group endpoints. Callers must already be authenticated.
func (h *GroupHandler) Routes(r chi.Router) {
	r.Get("/", h.ListGroups)
	r.Post("/", h.CreateGroup)
	r.Get("/mine", h.ListMyGroups)

	r.Route("/{groupID}", func(r chi.Router) {
		r.Get("/", h.GetGroup)
		r.Put("/", h.UpdateGroup)
		r.Post("/join", h.Join)
		r.Delete("/membership", h.Leave)

		r.Get("/members", h.ListMembers)
		r.Delete("/members/{userID}", h.RemoveMember)
		r.Put("/members/{userID}/role", h.ChangeRole)

		r.Get("/requests", h.ListRequests)
		r.Put("/requests/{requestID}", h.HandleRequest)
	})
}

type GroupResponse struct {
	BaseResponse
	Group *serializer.GroupView `json:"group"`
}

type GroupsResponse struct {
	BaseResponse
	Groups []*serializer.GroupView `json:"groups"`
}

type JoinRequestBody struct {
	Passkey string `json:"passkey"`
}

type JoinResponse struct {
	BaseResponse
	Outcome service.JoinOutcome     `json:"outcome"`
	Member  *serializer.MemberView  `json:"member,omitempty"`
	Request *serializer.RequestView `json:"request,omitempty"`
}

type LeaveResponse struct {
	BaseResponse
	Outcome     service.LeaveOutcome `json:"outcome"`
	SuccessorID *uuid.UUID           `json:"successor_id,omitempty"`
}

type MembersResponse struct {
	BaseResponse
	Members []*serializer.MemberView `json:"members"`
}

type MemberResponse struct {
	BaseResponse
	Member *serializer.MemberView `json:"member,omitempty"`
}

type RequestsResponse struct {
	BaseResponse
	Requests []*serializer.RequestView `json:"requests"`
}

type RoleRequestBody struct {
	Role model.Role `json:"role"`
}

type DecisionRequestBody struct {
	Decision service.Decision `json:"decision"`
}

func (h *GroupHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var input service.CreateGroupInput
	if !decodeJSON(w, r, &input) {
		return
	}

	summary, err := h.groups.CreateGroup(r.Context(), input, userID)
	if err != nil {
		respondWithDomainError(w, r, "Creating group error", err)
		return
	}

	h.respondGroup(w, r, http.StatusCreated, summary)
}

func (h *GroupHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	summaries, err := h.groups.ListGroups(r.Context(), userID)
	if err != nil {
		respondWithDomainError(w, r, "Listing groups error", err)
		return
	}

	h.respondGroups(w, r, summaries)
}

func (h *GroupHandler) ListMyGroups(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	summaries, err := h.groups.ListMyGroups(r.Context(), userID)
	if err != nil {
		respondWithDomainError(w, r, "Listing my groups error", err)
		return
	}

	h.respondGroups(w, r, summaries)
}

func (h *GroupHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := h.callerAndGroup(w, r)
	if !ok {
		return
	}

	summary, err := h.groups.GetGroupDetails(r.Context(), groupID, userID)
	if err != nil {
		respondWithDomainError(w, r, "Loading group error", err)
		return
	}

	h.respondGroup(w, r, http.StatusOK, summary)
}

func (h *GroupHandler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := h.callerAndGroup(w, r)
	if !ok {
		return
	}

	var input service.UpdateGroupInput
	if !decodeJSON(w, r, &input) {
		return
	}

	summary, err := h.groups.UpdateGroup(r.Context(), groupID, input, userID)
	if err != nil {
		respondWithDomainError(w, r, "Updating group error", err)
		return
	}

	h.respondGroup(w, r, http.StatusOK, summary)
}

func (h *GroupHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := h.callerAndGroup(w, r)
	if !ok {
		return
	}

	var body JoinRequestBody
	if r.ContentLength != 0 && !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.groups.Join(r.Context(), groupID, userID, body.Passkey)
	if err != nil {
		respondWithDomainError(w, r, "Joining group error", err)
		return
	}

	resp := JoinResponse{BaseResponse: BaseResponse{Ok: true}, Outcome: result.Outcome}
	status := http.StatusOK
	switch {
	case result.Membership != nil:
		resp.Member, err = h.presenter.Member(r.Context(), result.Membership)
	case result.Request != nil:
		status = http.StatusAccepted
		var views []*serializer.RequestView
		views, err = h.presenter.Requests(r.Context(), []*model.JoinRequest{result.Request})
		if err == nil {
			resp.Request = views[0]
		}
	}
	if err != nil {
		respondWithDomainError(w, r, "Rendering join result error", err)
		return
	}

	respondWithJSON(w, status, resp)
}

func (h *GroupHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := h.callerAndGroup(w, r)
	if !ok {
		return
	}

	result, err := h.groups.Leave(r.Context(), groupID, userID)
	if err != nil {
		respondWithDomainError(w, r, "Leaving group error", err)
		return
	}

	resp := LeaveResponse{BaseResponse: BaseResponse{Ok: true}, Outcome: result.Outcome}
	if result.SuccessorID != uuid.Nil {
		successor := result.SuccessorID
		resp.SuccessorID = &successor
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *GroupHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := h.callerAndGroup(w, r)
	if !ok {
		return
	}

	members, err := h.groups.GetMembers(r.Context(), groupID, userID)
	if err != nil {
		respondWithDomainError(w, r, "Listing members error", err)
		return
	}

	views, err := h.presenter.Members(r.Context(), members)
	if err != nil {
		respondWithDomainError(w, r, "Rendering members error", err)
		return
	}

	respondWithJSON(w, http.StatusOK, MembersResponse{BaseResponse: BaseResponse{Ok: true}, Members: views})
}

func (h *GroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := h.callerAndGroup(w, r)
	if !ok {
		return
	}
	memberID, ok := pathUUID(w, chi.URLParam(r, "userID"), "user id")
	if !ok {
		return
	}

	if err := h.groups.RemoveMember(r.Context(), groupID, memberID, userID); err != nil {
		respondWithDomainError(w, r, "Removing member error", err)
		return
	}

	respondWithJSON(w, http.StatusOK, BaseResponse{Ok: true})
}

func (h *GroupHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := h.callerAndGroup(w, r)
	if !ok {
		return
	}
	memberID, ok := pathUUID(w, chi.URLParam(r, "userID"), "user id")
	if !ok {
		return
	}

	var body RoleRequestBody
	if !decodeJSON(w, r, &body) {
		return
	}

	membership, err := h.groups.ChangeMemberRole(r.Context(), groupID, memberID, body.Role, userID)
	if err != nil {
		respondWithDomainError(w, r, "Changing role error", err)
		return
	}

	view, err := h.presenter.Member(r.Context(), membership)
	if err != nil {
		respondWithDomainError(w, r, "Rendering member error", err)
		return
	}

	respondWithJSON(w, http.StatusOK, MemberResponse{BaseResponse: BaseResponse{Ok: true}, Member: view})
}

func (h *GroupHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := h.callerAndGroup(w, r)
	if !ok {
		return
	}

	requests, err := h.groups.GetJoinRequests(r.Context(), groupID, userID)
	if err != nil {
		respondWithDomainError(w, r, "Listing join requests error", err)
		return
	}

	views, err := h.presenter.Requests(r.Context(), requests)
	if err != nil {
		respondWithDomainError(w, r, "Rendering join requests error", err)
		return
	}

	respondWithJSON(w, http.StatusOK, RequestsResponse{BaseResponse: BaseResponse{Ok: true}, Requests: views})
}

func (h *GroupHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := h.callerAndGroup(w, r)
	if !ok {
		return
	}
	requestID, ok := pathUUID(w, chi.URLParam(r, "requestID"), "request id")
	if !ok {
		return
	}

	var body DecisionRequestBody
	if !decodeJSON(w, r, &body) {
		return
	}

	membership, err := h.groups.HandleJoinRequest(r.Context(), groupID, requestID, body.Decision, userID)
	if err != nil {
		respondWithDomainError(w, r, "Handling join request error", err)
		return
	}

	resp := MemberResponse{BaseResponse: BaseResponse{Ok: true}}
	if membership != nil {
		if resp.Member, err = h.presenter.Member(r.Context(), membership); err != nil {
			respondWithDomainError(w, r, "Rendering member error", err)
			return
		}
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *GroupHandler) callerAndGroup(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := callerID(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	groupID, ok := pathUUID(w, chi.URLParam(r, "groupID"), "group id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return userID, groupID, true
}

func (h *GroupHandler) respondGroup(w http.ResponseWriter, r *http.Request, status int, summary *service.GroupSummary) {
	view, err := h.presenter.Group(r.Context(), summary)
	if err != nil {
		respondWithDomainError(w, r, "Rendering group error", err)
		return
	}
	respondWithJSON(w, status, GroupResponse{BaseResponse: BaseResponse{Ok: true}, Group: view})
}

func (h *GroupHandler) respondGroups(w http.ResponseWriter, r *http.Request, summaries []*service.GroupSummary) {
	views, err := h.presenter.Groups(r.Context(), summaries)
	if err != nil {
		respondWithDomainError(w, r, "Rendering groups error", err)
		return
	}
	respondWithJSON(w, http.StatusOK, GroupsResponse{BaseResponse: BaseResponse{Ok: true}, Groups: views})
}
