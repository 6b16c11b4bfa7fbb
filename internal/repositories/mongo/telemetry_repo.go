// Package mongo is the optional MongoDB telemetry backend.
package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/datatypes"

	"github.com/yoockh/yootravel/internal/models"
	"github.com/yoockh/yootravel/internal/repositories"
)

const (
	colLogs     = "logs"
	colActivity = "user_activity"
	colAPICalls = "api_calls"
	colErrors   = "error_logs"
)

type logDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp time.Time          `bson:"timestamp"`
	UserID    string             `bson:"user_id"`
	LogType   string             `bson:"log_type"`
	Message   string             `bson:"message"`
	Data      bson.M             `bson:"data,omitempty"`
	Level     string             `bson:"level"`
}

type activityDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp  time.Time          `bson:"timestamp"`
	UserID     string             `bson:"user_id"`
	ActionType string             `bson:"action_type"`
	Details    bson.M             `bson:"details,omitempty"`
	SessionID  string             `bson:"session_id,omitempty"`
}

type apiCallDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp      time.Time          `bson:"timestamp"`
	UserID         string             `bson:"user_id"`
	APIService     string             `bson:"api_service"`
	RequestData    bson.M             `bson:"request_data,omitempty"`
	ResponseData   bson.M             `bson:"response_data,omitempty"`
	StatusCode     *int               `bson:"status_code"`
	ResponseTimeMS *int64             `bson:"response_time_ms"`
	ErrorMessage   *string            `bson:"error_message,omitempty"`
}

type errorDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp    time.Time          `bson:"timestamp"`
	UserID       string             `bson:"user_id"`
	ErrorType    string             `bson:"error_type"`
	ErrorMessage string             `bson:"error_message"`
	StackTrace   *string            `bson:"stack_trace,omitempty"`
	Context      bson.M             `bson:"context,omitempty"`
}

type telemetryRepo struct {
	db       *mongo.Database
	logs     *mongo.Collection
	activity *mongo.Collection
	apiCalls *mongo.Collection
	errLogs  *mongo.Collection
}

func NewTelemetryRepo(db *mongo.Database) repositories.TelemetryRepository {
	return &telemetryRepo{
		db:       db,
		logs:     db.Collection(colLogs),
		activity: db.Collection(colActivity),
		apiCalls: db.Collection(colAPICalls),
		errLogs:  db.Collection(colErrors),
	}
}

func toDoc(j datatypes.JSON) bson.M {
	if len(j) == 0 {
		return nil
	}
	var m bson.M
	if err := bson.UnmarshalExtJSON(j, false, &m); err != nil {
		return bson.M{"raw": string(j)}
	}
	return m
}

func fromDoc(m bson.M) datatypes.JSON {
	if m == nil {
		return datatypes.JSON("{}")
	}
	b, err := bson.MarshalExtJSON(m, false, false)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return b
}

func stampUTC(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

func (r *telemetryRepo) InsertLog(ctx context.Context, e *models.LogEntry) error {
	e.Timestamp = stampUTC(e.Timestamp)
	if e.Level == "" {
		e.Level = models.LevelInfo
	}
	_, err := r.logs.InsertOne(ctx, logDoc{
		Timestamp: e.Timestamp, UserID: e.UserID, LogType: e.LogType,
		Message: e.Message, Data: toDoc(e.Data), Level: e.Level,
	})
	return err
}

func (r *telemetryRepo) InsertActivity(ctx context.Context, a *models.UserActivity) error {
	a.Timestamp = stampUTC(a.Timestamp)
	_, err := r.activity.InsertOne(ctx, activityDoc{
		Timestamp: a.Timestamp, UserID: a.UserID, ActionType: a.ActionType,
		Details: toDoc(a.Details), SessionID: a.SessionID,
	})
	return err
}

func (r *telemetryRepo) InsertAPICall(ctx context.Context, c *models.APICall) error {
	c.Timestamp = stampUTC(c.Timestamp)
	_, err := r.apiCalls.InsertOne(ctx, apiCallDoc{
		Timestamp: c.Timestamp, UserID: c.UserID, APIService: c.APIService,
		RequestData: toDoc(c.RequestData), ResponseData: toDoc(c.ResponseData),
		StatusCode: c.StatusCode, ResponseTimeMS: c.ResponseTimeMS, ErrorMessage: c.ErrorMessage,
	})
	return err
}

func (r *telemetryRepo) InsertError(ctx context.Context, e *models.ErrorLog) error {
	e.Timestamp = stampUTC(e.Timestamp)
	_, err := r.errLogs.InsertOne(ctx, errorDoc{
		Timestamp: e.Timestamp, UserID: e.UserID, ErrorType: e.ErrorType,
		ErrorMessage: e.ErrorMessage, StackTrace: e.StackTrace, Context: toDoc(e.Context),
	})
	return err
}

func (r *telemetryRepo) UserStats(ctx context.Context, userID string, recentSince time.Time) (*models.UserStats, error) {
	s := &models.UserStats{}
	var err error

	if s.TotalMessages, err = r.logs.CountDocuments(ctx, bson.M{"user_id": userID, "log_type": models.LogTypeUserInput}); err != nil {
		return nil, err
	}
	if s.TotalResponses, err = r.logs.CountDocuments(ctx, bson.M{"user_id": userID, "log_type": models.LogTypeAIResponse}); err != nil {
		return nil, err
	}
	if s.TotalErrors, err = r.errLogs.CountDocuments(ctx, bson.M{"user_id": userID}); err != nil {
		return nil, err
	}

	var first logDoc
	err = r.logs.FindOne(ctx, bson.M{"user_id": userID},
		options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: 1}}).SetProjection(bson.M{"timestamp": 1}),
	).Decode(&first)
	switch {
	case err == nil:
		t := first.Timestamp
		s.FirstActivity = &t
	case !errors.Is(err, mongo.ErrNoDocuments):
		return nil, err
	}

	if s.RecentActivityCount, err = r.activity.CountDocuments(ctx, bson.M{
		"user_id":   userID,
		"timestamp": bson.M{"$gt": recentSince.UTC()},
	}); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *telemetryRepo) SystemStats(ctx context.Context, dayStart time.Time) (*models.SystemStats, error) {
	s := &models.SystemStats{}
	today := bson.M{"$gte": dayStart.UTC(), "$lt": dayStart.UTC().Add(24 * time.Hour)}

	users, err := r.logs.Distinct(ctx, "user_id", bson.M{})
	if err != nil {
		return nil, err
	}
	s.TotalUsers = int64(len(users))

	if s.MessagesToday, err = r.logs.CountDocuments(ctx, bson.M{"log_type": models.LogTypeUserInput, "timestamp": today}); err != nil {
		return nil, err
	}
	if s.ErrorsToday, err = r.errLogs.CountDocuments(ctx, bson.M{"timestamp": today}); err != nil {
		return nil, err
	}

	cur, err := r.apiCalls.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"response_time_ms": bson.M{"$ne": nil}}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "avg": bson.M{"$avg": "$response_time_ms"}}}},
	})
	if err != nil {
		return nil, err
	}
	var avg []struct {
		Avg float64 `bson:"avg"`
	}
	if err := cur.All(ctx, &avg); err != nil {
		return nil, err
	}
	if len(avg) > 0 {
		s.AvgResponseTimeMS = int64(avg[0].Avg + 0.5)
	}
	return s, nil
}

// DeleteBefore runs one DeleteMany per collection. The deletes are not
// atomic across collections; a partial failure leaves earlier deletes applied.
func (r *telemetryRepo) DeleteBefore(ctx context.Context, cutoff, errorCutoff time.Time) (int64, error) {
	var total int64
	for _, col := range []*mongo.Collection{r.logs, r.activity, r.apiCalls} {
		res, err := col.DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": cutoff.UTC()}})
		if err != nil {
			return total, err
		}
		total += res.DeletedCount
	}
	res, err := r.errLogs.DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": errorCutoff.UTC()}})
	if err != nil {
		return total, err
	}
	return total + res.DeletedCount, nil
}

func (r *telemetryRepo) RecentLogs(ctx context.Context, level string, limit int) ([]models.LogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	filter := bson.M{}
	if level != "" {
		filter["level"] = level
	}
	cur, err := r.logs.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	var docs []logDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.LogEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.LogEntry{
			Timestamp: d.Timestamp, UserID: d.UserID, LogType: d.LogType,
			Message: d.Message, Data: fromDoc(d.Data), Level: d.Level,
		})
	}
	return out, nil
}

func (r *telemetryRepo) DailyActivity(ctx context.Context, since time.Time) ([]models.DailyCount, error) {
	cur, err := r.activity.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"timestamp": bson.M{"$gt": since.UTC()}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$timestamp"}},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	})
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Date  string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]models.DailyCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.DailyCount{Date: row.Date, Count: row.Count})
	}
	return out, nil
}

func (r *telemetryRepo) ActiveUsers(ctx context.Context) ([]models.ActiveUser, error) {
	cur, err := r.activity.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":              "$user_id",
			"first_seen":       bson.M{"$min": "$timestamp"},
			"last_seen":        bson.M{"$max": "$timestamp"},
			"total_activities": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "first_seen", Value: -1}, {Key: "_id", Value: 1}}}},
	})
	if err != nil {
		return nil, err
	}
	var rows []struct {
		UserID          string    `bson:"_id"`
		FirstSeen       time.Time `bson:"first_seen"`
		LastSeen        time.Time `bson:"last_seen"`
		TotalActivities int64     `bson:"total_activities"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]models.ActiveUser, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.ActiveUser{
			UserID: row.UserID, FirstSeen: row.FirstSeen, LastSeen: row.LastSeen, TotalActivities: row.TotalActivities,
		})
	}
	return out, nil
}

func (r *telemetryRepo) UserActivity(ctx context.Context, userID string, limit int) ([]models.UserActivity, error) {
	if limit <= 0 {
		limit = 10
	}
	cur, err := r.activity.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	var docs []activityDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.UserActivity, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.UserActivity{
			Timestamp: d.Timestamp, UserID: d.UserID, ActionType: d.ActionType,
			Details: fromDoc(d.Details), SessionID: d.SessionID,
		})
	}
	return out, nil
}

func (r *telemetryRepo) APICallSummary(ctx context.Context) ([]models.APICallSummary, error) {
	inRange := func(lo, hi any) bson.M {
		conds := bson.A{bson.M{"$gte": bson.A{"$status_code", lo}}}
		if hi != nil {
			conds = append(conds, bson.M{"$lt": bson.A{"$status_code", hi}})
		}
		return bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$and": conds}, 1, 0}}}
	}
	cur, err := r.apiCalls.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":               "$api_service",
			"total_calls":       bson.M{"$sum": 1},
			"avg_response_time": bson.M{"$avg": "$response_time_ms"},
			"successful_calls":  inRange(200, 300),
			"error_calls":       inRange(400, nil),
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	})
	if err != nil {
		return nil, err
	}
	var rows []struct {
		APIService      string   `bson:"_id"`
		TotalCalls      int64    `bson:"total_calls"`
		AvgResponseTime *float64 `bson:"avg_response_time"`
		SuccessfulCalls int64    `bson:"successful_calls"`
		ErrorCalls      int64    `bson:"error_calls"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]models.APICallSummary, 0, len(rows))
	for _, row := range rows {
		s := models.APICallSummary{
			APIService: row.APIService, TotalCalls: row.TotalCalls,
			SuccessfulCalls: row.SuccessfulCalls, ErrorCalls: row.ErrorCalls,
		}
		if row.AvgResponseTime != nil {
			s.AvgResponseTime = *row.AvgResponseTime
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *telemetryRepo) ErrorSummary(ctx context.Context) ([]models.ErrorSummary, error) {
	cur, err := r.errLogs.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":             "$error_type",
			"error_count":     bson.M{"$sum": 1},
			"last_occurrence": bson.M{"$max": "$timestamp"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "error_count", Value: -1}, {Key: "_id", Value: 1}}}},
	})
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ErrorType      string    `bson:"_id"`
		ErrorCount     int64     `bson:"error_count"`
		LastOccurrence time.Time `bson:"last_occurrence"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]models.ErrorSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.ErrorSummary{ErrorType: row.ErrorType, ErrorCount: row.ErrorCount, LastOccurrence: row.LastOccurrence})
	}
	return out, nil
}

func (r *telemetryRepo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.db.Client().Disconnect(ctx)
}
