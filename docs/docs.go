// Package docs SmartCity Issue Reporter API.
//
// Documentation of the SmartCity Issue Reporter API.
//
//     Schemes: https
//     BasePath: /
//     Version: 1.0.0
//
//     Consumes:
//     - application/json
//     - multipart/form-data
//
//     Produces:
//     - application/json
//
//     Security:
//     - bearer
//
//    SecurityDefinitions:
//    bearer:
//      type: apiKey
//      name: Authorization
//      in: header
//
// swagger:meta
package docs

import (
	"github.com/linesmerrill/city-reporter-api/models"
	"github.com/linesmerrill/city-reporter-api/reporting"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route GET / health serviceInfo
// Describes the running service and whether the database is reachable.
// responses:
//   200: serviceInfoResponse

// swagger:response serviceInfoResponse
type serviceInfoResponseWrapper struct {
	// in:body
	Body models.ServiceInfoResponse
}

// swagger:route POST /submit-report reports submitReport
// Submits a citizen report with a photo and emails every selected office.
// Emails that fail are recorded on the report and do not fail the request.
// responses:
//   201: submitReportResponse
//   400: errorResponse
//   502: errorResponse

// swagger:response submitReportResponse
type submitReportResponseWrapper struct {
	// in:body
	Body struct {
		Success bool                       `json:"success"`
		Message string                     `json:"message"`
		Data    reporting.SubmissionResult `json:"data"`
	}
}

// swagger:route GET /reports/{report_id} reports reportByID
// Gets a single report by ID.
// responses:
//   200: reportResponse
//   404: errorResponse

// swagger:route PATCH /reports/{report_id}/resolution-status reports resolutionStatus
// Moves a report to a new resolution status and logs the change.
// Security:
//   bearer:
// responses:
//   200: reportResponse
//   400: errorResponse
//   403: errorResponse
//   404: errorResponse

// swagger:response reportResponse
type reportResponseWrapper struct {
	// in:body
	Body struct {
		Success bool               `json:"success"`
		Report  models.IssueReport `json:"report"`
	}
}

// swagger:route GET /reports/{report_id}/public-comments comments publicComments
// Lists the public comments on a report in the order they were left.
// responses:
//   200: publicCommentsResponse

// swagger:response publicCommentsResponse
type publicCommentsResponseWrapper struct {
	// in:body
	Body reporting.CommentList
}

// Every failure carries a stable error kind and a message safe to show.
// swagger:response errorResponse
type errorResponseWrapper struct {
	// in:body
	Body models.ErrorMessageResponse
}
