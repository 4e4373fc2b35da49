package controllers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"eventcatalog/internal/delivery/http/helpers"
	"eventcatalog/internal/domain"
)

// wireTimeLayout is the time format used in request bodies, matching the
// query-parameter format.
const wireTimeLayout = "2006-01-02 15:04:05"

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// locationBody is the location object in request bodies.
type locationBody struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CreateEventRequest is the request body for POST /users/{userID}/events.
type CreateEventRequest struct {
	Title             string       `json:"title"`
	Annotation        string       `json:"annotation"`
	Description       string       `json:"description"`
	CategoryID        int64        `json:"category_id"`
	EventDate         string       `json:"event_date"`
	Location          locationBody `json:"location"`
	Paid              *bool        `json:"paid"`
	ParticipantLimit  int          `json:"participant_limit"`
	RequestModeration *bool        `json:"request_moderation"`
}

// Validate implements helpers.Validator.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, "title is required")
	}
	if strings.TrimSpace(c.Annotation) == "" {
		errs = append(errs, "annotation is required")
	}
	if c.CategoryID <= 0 {
		errs = append(errs, "category_id is required")
	}
	if c.EventDate == "" {
		errs = append(errs, "event_date is required")
	}
	if c.ParticipantLimit < 0 {
		errs = append(errs, "participant_limit must not be negative")
	}
	return errs
}

// UpdateEventRequest is the request body for the owner and admin PATCH
// endpoints. Omitted fields leave the stored value untouched.
type UpdateEventRequest struct {
	Title             *string       `json:"title"`
	Annotation        *string       `json:"annotation"`
	Description       *string       `json:"description"`
	CategoryID        *int64        `json:"category_id"`
	EventDate         *string       `json:"event_date"`
	Location          *locationBody `json:"location"`
	Paid              *bool         `json:"paid"`
	ParticipantLimit  *int          `json:"participant_limit"`
	RequestModeration *bool         `json:"request_moderation"`
	StateAction       *string       `json:"state_action"`
}

// toPatch converts the request body to a domain patch, validating the date
// format and the state-action literal.
func (c UpdateEventRequest) toPatch() (domain.EventPatch, error) {
	patch := domain.EventPatch{
		Title:             c.Title,
		Annotation:        c.Annotation,
		Description:       c.Description,
		CategoryID:        c.CategoryID,
		Paid:              c.Paid,
		ParticipantLimit:  c.ParticipantLimit,
		RequestModeration: c.RequestModeration,
	}
	if c.EventDate != nil {
		t, err := time.Parse(wireTimeLayout, *c.EventDate)
		if err != nil {
			return domain.EventPatch{}, err
		}
		patch.EventDate = &t
	}
	if c.Location != nil {
		patch.Location = &domain.Location{Lat: c.Location.Lat, Lon: c.Location.Lon}
	}
	if c.StateAction != nil {
		action, err := domain.ParseStateAction(*c.StateAction)
		if err != nil {
			return domain.EventPatch{}, err
		}
		patch.StateAction = &action
	}
	return patch, nil
}

// ListEvents godoc
// @Summary List events
// @Description Lists events matching the filter. Non-admin callers only see published events. Sorting: EVENT_DATE (ascending) or RATING (descending score).
// @Tags events
// @Produce json
// @Param text query string false "Substring match over title, annotation and description"
// @Param categories query string false "Comma-separated category ids"
// @Param paid query bool false "Paid flag"
// @Param rangeStart query string false "Window start (yyyy-MM-dd HH:mm:ss), defaults to now"
// @Param rangeEnd query string false "Window end, exclusive"
// @Param onlyAvailable query bool false "Only events with free participant slots"
// @Param sort query string false "EVENT_DATE or RATING"
// @Param from query int false "Result offset"
// @Param size query int false "Page size"
// @Param role query string false "Caller role; anything but user means admin"
// @Success 200 {object} helpers.APIResponse "data is a list of EventView"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	q := domain.EventListQuery{
		Text:      strings.TrimSpace(r.URL.Query().Get("text")),
		AdminView: role != "" && !strings.EqualFold(role, "user"),
	}
	var err error
	if q.CategoryIDs, err = helpers.ParseIDList(r, "categories"); err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	if q.Paid, err = helpers.ParseOptionalBool(r, "paid"); err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	if q.RangeStart, err = helpers.ParseQueryTime(r, "rangeStart"); err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	if q.RangeEnd, err = helpers.ParseQueryTime(r, "rangeEnd"); err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	onlyAvailable, err := helpers.ParseOptionalBool(r, "onlyAvailable")
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	if onlyAvailable != nil {
		q.OnlyAvailable = *onlyAvailable
	}
	switch sort := r.URL.Query().Get("sort"); sort {
	case "", string(domain.SortEventDate), string(domain.SortRating):
		q.Sort = domain.EventSort(sort)
	default:
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "unknown sort: "+sort)
		return
	}
	if q.From, q.Size, err = helpers.ParseFromSize(r); err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}

	views, err := c.Service.List(r.Context(), q)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, views)
}

// GetEvent godoc
// @Summary Get a published event
// @Description Returns the merged event record. Unpublished events are 404 for everyone but their owner. A viewer_id triggers best-effort VIEW telemetry.
// @Tags events
// @Produce json
// @Param eventID path int true "Event id"
// @Param viewer_id query int false "Viewer user id"
// @Success 200 {object} helpers.APIResponse "data is an EventView"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := helpers.ParseIDParam(r, "eventID")
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	var viewerID *int64
	if raw := r.URL.Query().Get("viewer_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid viewer_id")
			return
		}
		viewerID = &id
	}

	view, err := c.Service.Get(r.Context(), eventID, viewerID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, view)
}

// ListOwnEvents godoc
// @Summary List the caller's own events
// @Tags events
// @Produce json
// @Param userID path int true "Owner user id"
// @Param from query int false "Result offset"
// @Param size query int false "Page size"
// @Success 200 {object} helpers.APIResponse "data is a list of EventSummary"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /users/{userID}/events [get]
func (c *EventController) ListOwnEvents(w http.ResponseWriter, r *http.Request) {
	userID, err := helpers.ParseIDParam(r, "userID")
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	from, size, err := helpers.ParseFromSize(r)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	summaries, err := c.Service.ListByOwner(r.Context(), userID, from, size)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, summaries)
}

// GetOwnEvent godoc
// @Summary Get one of the caller's own events
// @Tags events
// @Produce json
// @Param userID path int true "Owner user id"
// @Param eventID path int true "Event id"
// @Success 200 {object} helpers.APIResponse "data is an EventView"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /users/{userID}/events/{eventID} [get]
func (c *EventController) GetOwnEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := helpers.ParseIDParam(r, "userID")
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	eventID, err := helpers.ParseIDParam(r, "eventID")
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	view, err := c.Service.GetOwned(r.Context(), userID, eventID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, view)
}

// GetRecommendations godoc
// @Summary Personalized event recommendations
// @Description Returns events in the interaction engine's relevance order.
// @Tags events
// @Produce json
// @Param userID path int true "User id"
// @Success 200 {object} helpers.APIResponse "data is a list of EventSummary"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /users/{userID}/recommendations [get]
func (c *EventController) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, err := helpers.ParseIDParam(r, "userID")
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	summaries, err := c.Service.Recommendations(r.Context(), userID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, summaries)
}

// CreateEvent godoc
// @Summary Create an event
// @Description Creates an event in PENDING state owned by the path user. The event must start more than two hours from now.
// @Tags events
// @Accept json
// @Produce json
// @Param userID path int true "Owner user id"
// @Param event body CreateEventRequest true "Event draft"
// @Success 201 {object} helpers.APIResponse "data is an EventView"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conditions_not_met"
// @Router /users/{userID}/events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := helpers.ParseIDParam(r, "userID")
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	eventDate, err := time.Parse(wireTimeLayout, req.EventDate)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid event_date: "+req.EventDate)
		return
	}

	draft := domain.NewEvent{
		Title:             req.Title,
		Annotation:        req.Annotation,
		Description:       req.Description,
		CategoryID:        req.CategoryID,
		EventDate:         eventDate,
		Location:          domain.Location{Lat: req.Location.Lat, Lon: req.Location.Lon},
		Paid:              req.Paid,
		ParticipantLimit:  req.ParticipantLimit,
		RequestModeration: req.RequestModeration,
	}
	view, err := c.Service.Create(r.Context(), userID, draft)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, view)
}

// UpdateEvent godoc
// @Summary Update one of the caller's own events
// @Description Applies a partial update. Only pending or canceled events can be changed, and the event must start more than two hours from now.
// @Tags events
// @Accept json
// @Produce json
// @Param userID path int true "Owner user id"
// @Param eventID path int true "Event id"
// @Param patch body UpdateEventRequest true "Partial update"
// @Success 200 {object} helpers.APIResponse "data is an EventView"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict or conditions_not_met"
// @Router /users/{userID}/events/{eventID} [patch]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := helpers.ParseIDParam(r, "userID")
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	eventID, err := helpers.ParseIDParam(r, "eventID")
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	view, err := c.Service.Update(r.Context(), userID, eventID, patch)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, view)
}

// ModerateEvent godoc
// @Summary Moderate an event (admin)
// @Description Applies an administrator patch, including PUBLISH_EVENT and REJECT_EVENT state actions. Publishing requires the event to start more than one hour from now.
// @Tags admin
// @Accept json
// @Produce json
// @Param eventID path int true "Event id"
// @Param patch body UpdateEventRequest true "Partial update with optional state_action"
// @Success 200 {object} helpers.APIResponse "data is an EventView"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict or conditions_not_met"
// @Router /admin/events/{eventID} [patch]
func (c *EventController) ModerateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := helpers.ParseIDParam(r, "eventID")
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	view, err := c.Service.Moderate(r.Context(), eventID, patch)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, view)
}

// LikeEvent godoc
// @Summary Record a like
// @Description Records a best-effort LIKE action for the given user.
// @Tags events
// @Param eventID path int true "Event id"
// @Param user_id query int true "Acting user id"
// @Success 204 "no content"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/like [post]
func (c *EventController) LikeEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := helpers.ParseIDParam(r, "eventID")
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	actorID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || actorID <= 0 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid user_id")
		return
	}
	if err := c.Service.Like(r.Context(), eventID, actorID); err != nil {
		c.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckOwnership godoc
// @Summary Check event ownership (internal)
// @Description Reports whether the event belongs to the user, without detail.
// @Tags internal
// @Produce json
// @Param eventID path int true "Event id"
// @Param userID path int true "Claimed owner id"
// @Success 200 {object} helpers.APIResponse "data is {owner: bool}"
// @Router /internal/events/{eventID}/owner/{userID} [get]
func (c *EventController) CheckOwnership(w http.ResponseWriter, r *http.Request) {
	eventID, err := helpers.ParseIDParam(r, "eventID")
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	userID, err := helpers.ParseIDParam(r, "userID")
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	owner, err := c.Service.CheckOwnership(r.Context(), eventID, userID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]bool{"owner": owner})
}

// SyncEvent godoc
// @Summary Apply a full event record (internal)
// @Description Trusted write used by the registration subsystem to sync confirmed request counters. Omitted fields keep their stored values.
// @Tags internal
// @Accept json
// @Produce json
// @Param event body domain.EventSync true "Full event record"
// @Success 200 {object} helpers.APIResponse "data is an EventView"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /internal/events [put]
func (c *EventController) SyncEvent(w http.ResponseWriter, r *http.Request) {
	var full domain.EventSync
	if !helpers.DecodeAndValidate(w, r, &full) {
		return
	}
	if full.ID <= 0 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "id is required")
		return
	}
	view, err := c.Service.ApplyFull(r.Context(), &full)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, view)
}

// writeError logs unexpected failures and maps the error onto the response.
func (c *EventController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if !isClientError(err) {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	}
	helpers.WriteDomainError(w, err)
}
