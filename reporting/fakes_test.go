package reporting

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/city-reporter-api/blobstore"
	"github.com/linesmerrill/city-reporter-api/databases"
	"github.com/linesmerrill/city-reporter-api/models"
	"github.com/linesmerrill/city-reporter-api/notify"
)

type fakeUserDB struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
	err     error
}

func newFakeUserDB() *fakeUserDB {
	return &fakeUserDB{byEmail: map[string]*models.User{}}
}

func (f *fakeUserDB) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeUserDB) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for _, u := range f.byEmail {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserDB) UpsertByEmail(ctx context.Context, name, email, phone string, now time.Time) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byEmail[email]
	if !ok {
		u = &models.User{ID: primitive.NewObjectID(), Email: email, CreatedAt: now}
		f.byEmail[email] = u
	}
	u.Name = name
	if phone != "" {
		u.Phone = phone
	}
	u.UpdatedAt = now
	c := *u
	return &c, nil
}

func (f *fakeUserDB) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byEmail)
}

type fakeAdminDB struct {
	mu     sync.Mutex
	admins map[primitive.ObjectID]*models.Admin
	finds  int
}

func newFakeAdminDB(admins ...models.Admin) *fakeAdminDB {
	f := &fakeAdminDB{admins: map[primitive.ObjectID]*models.Admin{}}
	for i := range admins {
		a := admins[i]
		f.admins[a.ID] = &a
	}
	return f
}

func (f *fakeAdminDB) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	a, ok := f.admins[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	c := *a
	return &c, nil
}

func (f *fakeAdminDB) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Admin{}
	for _, a := range f.admins {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeAdminDB) UpsertByEmail(ctx context.Context, admin models.Admin, now time.Time) (*models.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.admins {
		if a.Email == admin.Email {
			phone := a.Phone
			id, created := a.ID, a.CreatedAt
			*a = admin
			a.ID, a.CreatedAt, a.UpdatedAt = id, created, now
			if admin.Phone == "" {
				a.Phone = phone
			}
			c := *a
			return &c, nil
		}
	}
	admin.ID = primitive.NewObjectID()
	admin.CreatedAt, admin.UpdatedAt = now, now
	f.admins[admin.ID] = &admin
	c := admin
	return &c, nil
}

func (f *fakeAdminDB) InsertMany(ctx context.Context, admins []models.Admin) ([]interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []interface{}
	for i := range admins {
		a := admins[i]
		if a.ID.IsZero() {
			a.ID = primitive.NewObjectID()
		}
		f.admins[a.ID] = &a
		ids = append(ids, a.ID)
	}
	return ids, nil
}

type fakeReportDB struct {
	mu      sync.Mutex
	reports map[primitive.ObjectID]*models.IssueReport
	writes  int

	insertErr      error
	appendEmailErr error
	// beforeTransition runs before each conditional status write
	beforeTransition func(r *models.IssueReport)
}

func newFakeReportDB() *fakeReportDB {
	return &fakeReportDB{reports: map[primitive.ObjectID]*models.IssueReport{}}
}

func cloneReport(r *models.IssueReport) *models.IssueReport {
	c := *r
	c.Offices = append([]models.OfficeSnapshot(nil), r.Offices...)
	c.EmailsSent = append([]models.EmailDelivery{}, r.EmailsSent...)
	c.AdminActions = append([]models.AdminAction{}, r.AdminActions...)
	c.EvidencePhotos = append([]models.EvidencePhoto{}, r.EvidencePhotos...)
	c.PublicComments = append([]models.PublicComment{}, r.PublicComments...)
	return &c
}

func (f *fakeReportDB) get(id primitive.ObjectID) *models.IssueReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok {
		return nil
	}
	return cloneReport(r)
}

func (f *fakeReportDB) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reports)
}

func (f *fakeReportDB) InsertOne(ctx context.Context, report models.IssueReport) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return primitive.NilObjectID, f.insertErr
	}
	f.writes++
	report.ID = primitive.NewObjectID()
	f.reports[report.ID] = cloneReport(&report)
	return report.ID, nil
}

func (f *fakeReportDB) FindByID(ctx context.Context, id primitive.ObjectID) (*models.IssueReport, error) {
	if r := f.get(id); r != nil {
		return r, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeReportDB) matching(filter databases.ReportFilter) []models.IssueReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.IssueReport{}
	for _, r := range f.reports {
		switch {
		case filter.Status != "" && r.Status != filter.Status,
			filter.ResolutionStatus != "" && r.ResolutionStatus != filter.ResolutionStatus,
			filter.City != "" && !strings.EqualFold(r.Location.City, filter.City),
			filter.District != "" && !strings.EqualFold(r.Location.District, filter.District),
			filter.Province != "" && !strings.EqualFold(r.Location.Province, filter.Province),
			filter.ReporterID != nil && r.Reporter.UserID != *filter.ReporterID,
			filter.AssignedAdmin != nil && (r.AssignedAdmin == nil || *r.AssignedAdmin != *filter.AssignedAdmin):
			continue
		}
		out = append(out, *cloneReport(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeReportDB) Find(ctx context.Context, filter databases.ReportFilter, page databases.Page) ([]models.IssueReport, error) {
	all := f.matching(filter)
	start := int(page.Skip)
	if start > len(all) {
		start = len(all)
	}
	end := start + int(page.Limit)
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (f *fakeReportDB) Count(ctx context.Context, filter databases.ReportFilter) (int64, error) {
	return int64(len(f.matching(filter))), nil
}

func (f *fakeReportDB) FindNear(ctx context.Context, latitude, longitude, maxMeters float64, limit int64) ([]models.IssueReport, error) {
	return f.matching(databases.ReportFilter{}), nil
}

func (f *fakeReportDB) DeleteByID(ctx context.Context, id primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reports[id]; !ok {
		return 0, nil
	}
	f.writes++
	delete(f.reports, id)
	return 1, nil
}

// update applies fn to the stored report under the lock
func (f *fakeReportDB) update(id primitive.ObjectID, fn func(r *models.IssueReport) bool) (*models.IssueReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok || !fn(r) {
		return nil, mongo.ErrNoDocuments
	}
	f.writes++
	return cloneReport(r), nil
}

func (f *fakeReportDB) AppendEmailDeliveries(ctx context.Context, id primitive.ObjectID, deliveries []models.EmailDelivery) error {
	if f.appendEmailErr != nil {
		return f.appendEmailErr
	}
	_, err := f.update(id, func(r *models.IssueReport) bool {
		r.EmailsSent = append(r.EmailsSent, deliveries...)
		return true
	})
	return err
}

func (f *fakeReportDB) SetStatus(ctx context.Context, id primitive.ObjectID, status models.ReportStatus, now time.Time) (*models.IssueReport, error) {
	return f.update(id, func(r *models.IssueReport) bool {
		r.Status, r.UpdatedAt = status, now
		return true
	})
}

func (f *fakeReportDB) Assign(ctx context.Context, id primitive.ObjectID, admin models.Admin, now time.Time) (*models.IssueReport, error) {
	return f.update(id, func(r *models.IssueReport) bool {
		aid := admin.ID
		r.AssignedAdmin = &aid
		r.AssignedAdminName = admin.Name
		r.AssignedAdminPosition = admin.Position
		r.AssignedAt = &now
		return true
	})
}

func (f *fakeReportDB) TransitionResolution(ctx context.Context, id primitive.ObjectID, from, to models.ResolutionStatus, action models.AdminAction) (*models.IssueReport, error) {
	if f.beforeTransition != nil {
		f.mu.Lock()
		if r, ok := f.reports[id]; ok {
			f.beforeTransition(r)
		}
		f.mu.Unlock()
	}
	return f.update(id, func(r *models.IssueReport) bool {
		if r.ResolutionStatus != from {
			return false
		}
		r.ResolutionStatus = to
		r.AdminActions = append(r.AdminActions, action)
		return true
	})
}

func (f *fakeReportDB) AppendAdminAction(ctx context.Context, id primitive.ObjectID, action models.AdminAction) (*models.IssueReport, error) {
	return f.update(id, func(r *models.IssueReport) bool {
		r.AdminActions = append(r.AdminActions, action)
		return true
	})
}

func (f *fakeReportDB) AppendEvidence(ctx context.Context, id primitive.ObjectID, photo models.EvidencePhoto, action models.AdminAction) (*models.IssueReport, error) {
	return f.update(id, func(r *models.IssueReport) bool {
		r.EvidencePhotos = append(r.EvidencePhotos, photo)
		r.AdminActions = append(r.AdminActions, action)
		return true
	})
}

func (f *fakeReportDB) AppendPublicComment(ctx context.Context, id primitive.ObjectID, comment models.PublicComment) (*models.IssueReport, error) {
	return f.update(id, func(r *models.IssueReport) bool {
		r.PublicComments = append(r.PublicComments, comment)
		return true
	})
}

func (f *fakeReportDB) RemovePublicComment(ctx context.Context, id primitive.ObjectID, commentID string, now time.Time) (*models.IssueReport, error) {
	return f.update(id, func(r *models.IssueReport) bool {
		for i, c := range r.PublicComments {
			if c.ID == commentID {
				r.PublicComments = append(r.PublicComments[:i], r.PublicComments[i+1:]...)
				return true
			}
		}
		return false
	})
}

func (f *fakeReportDB) CountByField(ctx context.Context, field string) ([]models.CountByKey, error) {
	counts := map[string]int64{}
	for _, r := range f.matching(databases.ReportFilter{}) {
		switch field {
		case "location.city":
			counts[r.Location.City]++
		case "location.district":
			counts[r.Location.District]++
		case "location.province":
			counts[r.Location.Province]++
		case "status":
			counts[string(r.Status)]++
		case "resolutionStatus":
			counts[string(r.ResolutionStatus)]++
		default:
			return nil, errors.New("unsupported field " + field)
		}
	}
	rows := []models.CountByKey{}
	for k, n := range counts {
		rows = append(rows, models.CountByKey{Key: k, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Key < rows[j].Key
	})
	return rows, nil
}

func (f *fakeReportDB) AdminActivity(ctx context.Context) ([]models.AdminActivity, error) {
	byName := map[string]*models.AdminActivity{}
	for _, r := range f.matching(databases.ReportFilter{}) {
		for _, a := range r.AdminActions {
			row, ok := byName[a.AdminName]
			if !ok {
				row = &models.AdminActivity{AdminName: a.AdminName}
				byName[a.AdminName] = row
			}
			row.TotalActions++
			switch a.ActionType {
			case models.ActionComment:
				row.Comments++
			case models.ActionStatusUpdate:
				row.StatusUpdates++
			case models.ActionPhotoUpload:
				row.PhotoUploads++
			}
		}
	}
	rows := []models.AdminActivity{}
	for _, r := range byName {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].TotalActions > rows[j].TotalActions })
	return rows, nil
}

type fakeUploader struct {
	mu      sync.Mutex
	uploads []blobstore.Object
	err     error
	block   bool
}

func (f *fakeUploader) Upload(ctx context.Context, blob blobstore.Blob) (blobstore.Object, error) {
	if f.block {
		<-ctx.Done()
		return blobstore.Object{}, ctx.Err()
	}
	if f.err != nil {
		return blobstore.Object{}, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	path := blobstore.NewPath("issue-reports", time.Now())
	obj := blobstore.Object{URL: "https://cdn.example/" + path, Path: path}
	f.uploads = append(f.uploads, obj)
	return obj, nil
}

func (f *fakeUploader) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

// fakeNotifier fails for every address listed in failFor
type fakeNotifier struct {
	mu      sync.Mutex
	sent    []notify.Message
	failFor map[string]bool
	block   map[string]bool
}

func (f *fakeNotifier) Send(ctx context.Context, msg notify.Message) notify.Delivery {
	if f.block[msg.To] {
		<-ctx.Done()
		return notify.Delivery{Error: ctx.Err().Error()}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	if f.failFor[msg.To] {
		return notify.Delivery{Error: "mailbox unavailable"}
	}
	return notify.Delivery{Success: true, MessageID: "msg-" + msg.To}
}

type recordingEvents struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingEvents) Publish(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingEvents) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []EventType
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	svc      *Service
	users    *fakeUserDB
	admins   *fakeAdminDB
	reports  *fakeReportDB
	uploader *fakeUploader
	notifier *fakeNotifier
	events   *recordingEvents
	admin    models.Admin
	other    models.Admin
}

func newFixture() *fixture {
	admin := models.Admin{ID: primitive.NewObjectID(), Name: "Nimal Perera", Email: "nimal@gov.lk", Position: "Divisional Secretary", City: "Colombo"}
	other := models.Admin{ID: primitive.NewObjectID(), Name: "Sunil Silva", Email: "sunil@police.lk", Position: "OIC", City: "Kandy"}
	f := &fixture{
		users:    newFakeUserDB(),
		admins:   newFakeAdminDB(admin, other),
		reports:  newFakeReportDB(),
		uploader: &fakeUploader{},
		notifier: &fakeNotifier{failFor: map[string]bool{}, block: map[string]bool{}},
		events:   &recordingEvents{},
		admin:    admin,
		other:    other,
	}
	f.svc = New(Deps{
		Users:    f.users,
		Admins:   f.admins,
		Reports:  f.reports,
		Uploader: f.uploader,
		Notifier: f.notifier,
		Events:   f.events,
	}, Options{UploadTimeout: time.Second, NotifyTimeout: time.Second, NotifyConcurrency: 2})
	return f
}

func float(v float64) *float64 { return &v }

func validRequest() SubmitRequest {
	return SubmitRequest{
		Description: "  Large pothole on the main road  ",
		Location: LocationInput{
			Latitude:  float(6.9),
			Longitude: float(79.9),
			Address:   "Galle Road",
			City:      "Colombo",
		},
		Offices: []OfficeInput{
			{Type: "ds", Name: "Divisional Secretariat Colombo", Email: "DS.Colombo@gov.lk"},
			{Type: "PS", Name: "Colombo Central Police Station", Email: "ps.colombo@police.lk"},
		},
		Reporter: ReporterInput{FullName: "Kamal Fernando", Email: " Kamal@Example.com "},
		Photo:    blobstore.Blob{Data: []byte("jpeg"), ContentType: "image/jpeg"},
	}
}

// submitOne stores a report and returns its id
func (f *fixture) submitOne() string {
	res, err := f.svc.Submit(context.Background(), validRequest())
	if err != nil {
		panic(err)
	}
	return res.ReportID.Hex()
}
