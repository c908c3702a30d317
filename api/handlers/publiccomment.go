package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/city-reporter-api/reporting"
)

// PublicComment exported for testing purposes
type PublicComment struct {
	Svc *reporting.Service
}

type publicCommentRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Text  string `json:"text"`
}

// AddPublicCommentHandler stores an unauthenticated comment on a report
func (p PublicComment) AddPublicCommentHandler(w http.ResponseWriter, r *http.Request) {
	var req publicCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := p.Svc.AddPublicComment(r.Context(), reportID(r), req.Name, req.Email, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{
		"message":       "Comment submitted successfully",
		"comment":       rec.Comment,
		"totalComments": rec.TotalComments,
		"reportInfo":    rec.ReportInfo,
	})
}

// PublicCommentsHandler lists the comments on a report
func (p PublicComment) PublicCommentsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := p.Svc.ListPublicComments(r.Context(), reportID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"reportId":      list.ReportID,
		"city":          list.City,
		"totalComments": list.TotalComments,
		"comments":      list.Comments,
	})
}

// DeletePublicCommentHandler removes one comment
func (p PublicComment) DeletePublicCommentHandler(w http.ResponseWriter, r *http.Request) {
	remaining, err := p.Svc.DeletePublicComment(r.Context(), reportID(r), mux.Vars(r)["comment_id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Comment deleted successfully", "remainingComments": remaining})
}
