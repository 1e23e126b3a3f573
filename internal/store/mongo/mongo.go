// Package mongo implements core.Repository on MongoDB. Documents keep their
// application-level uuid in the "id" field; Mongo's _id is left to the driver
// and never leaves this package.
package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eternals-studio/portal/internal/store/core"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

func New(ctx context.Context, uri, database string) (*Store, error) {
	cl, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	s := &Store{client: cl, db: cl.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = cl.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.users().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *Store) Ping(ctx context.Context) error { return s.client.Ping(ctx, nil) }

func (s *Store) Close(ctx context.Context) error { return s.client.Disconnect(ctx) }

func (s *Store) users() *mongo.Collection        { return s.db.Collection("users") }
func (s *Store) projects() *mongo.Collection     { return s.db.Collection("projects") }
func (s *Store) invoices() *mongo.Collection     { return s.db.Collection("invoices") }
func (s *Store) messages() *mongo.Collection     { return s.db.Collection("messages") }
func (s *Store) testimonials() *mongo.Collection { return s.db.Collection("testimonials") }
func (s *Store) content() *mongo.Collection      { return s.db.Collection("content") }
func (s *Store) files() *mongo.Collection        { return s.db.Collection("files") }
func (s *Store) counters() *mongo.Collection     { return s.db.Collection("counter_stats") }

func one[T any](res *mongo.SingleResult) (*T, error) {
	var out T
	if err := res.Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func all[T any](ctx context.Context, cur *mongo.Cursor, err error) ([]*T, error) {
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*T
	for cur.Next(ctx) {
		var v T
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, cur.Err()
}

func matched(res *mongo.UpdateResult, err error) error {
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ---- users ----

func (s *Store) CreateUser(ctx context.Context, u *core.User) error {
	_, err := s.users().InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return core.ErrDuplicate
	}
	return err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return one[core.User](s.users().FindOne(ctx, bson.M{"email": email}))
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	return one[core.User](s.users().FindOne(ctx, bson.M{"id": id}))
}

func (s *Store) GetUserByOAuthLink(ctx context.Context, provider, providerID string) (*core.User, error) {
	filter := bson.M{"oauth_providers." + provider + ".provider_id": providerID}
	return one[core.User](s.users().FindOne(ctx, filter))
}

func (s *Store) ListUsers(ctx context.Context) ([]*core.User, error) {
	cur, err := s.users().Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"created_at": 1}))
	return all[core.User](ctx, cur, err)
}

func (s *Store) RecordLogin(ctx context.Context, userID, method string, at time.Time) error {
	return matched(s.users().UpdateOne(ctx,
		bson.M{"id": userID},
		bson.M{"$set": bson.M{"last_login": at, "login_method": method}},
	))
}

func (s *Store) UpsertOAuthLink(ctx context.Context, userID, provider string, link core.OAuthLink) error {
	return matched(s.users().UpdateOne(ctx,
		bson.M{"id": userID},
		bson.M{"$set": bson.M{"oauth_providers." + provider: link}},
	))
}

func (s *Store) UpdateUserRole(ctx context.Context, userID string, role core.Role) error {
	return matched(s.users().UpdateOne(ctx,
		bson.M{"id": userID},
		bson.M{"$set": bson.M{"role": role}},
	))
}

func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	res, err := s.users().DeleteOne(ctx, bson.M{"id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ---- projects ----

func (s *Store) CreateProject(ctx context.Context, p *core.Project) error {
	_, err := s.projects().InsertOne(ctx, p)
	return err
}

func (s *Store) GetProject(ctx context.Context, id string) (*core.Project, error) {
	return one[core.Project](s.projects().FindOne(ctx, bson.M{"id": id}))
}

func (s *Store) ListProjects(ctx context.Context) ([]*core.Project, error) {
	cur, err := s.projects().Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"created_at": 1}))
	return all[core.Project](ctx, cur, err)
}

func (s *Store) ListProjectsByClient(ctx context.Context, clientID string) ([]*core.Project, error) {
	cur, err := s.projects().Find(ctx, bson.M{"client_id": clientID},
		options.Find().SetSort(bson.M{"created_at": 1}))
	return all[core.Project](ctx, cur, err)
}

func (s *Store) UpdateProjectStatus(ctx context.Context, id string, status core.ProjectStatus) error {
	return matched(s.projects().UpdateOne(ctx,
		bson.M{"id": id},
		bson.M{"$set": bson.M{"status": status}},
	))
}

func (s *Store) AppendProjectFile(ctx context.Context, id, fileID string) error {
	return matched(s.projects().UpdateOne(ctx,
		bson.M{"id": id},
		bson.M{"$push": bson.M{"files": fileID}},
	))
}

func (s *Store) AttachInvoice(ctx context.Context, projectID, invoiceID string) error {
	return matched(s.projects().UpdateOne(ctx,
		bson.M{"id": projectID},
		bson.M{"$set": bson.M{"invoice_id": invoiceID, "is_locked": true}},
	))
}

func (s *Store) ReleaseInvoice(ctx context.Context, invoiceID string, status core.ProjectStatus) (*core.Project, error) {
	set := bson.M{"is_locked": false}
	if status != "" {
		set["status"] = status
	}
	res := s.projects().FindOneAndUpdate(ctx,
		bson.M{"invoice_id": invoiceID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	return one[core.Project](res)
}

// ---- invoices ----

func (s *Store) CreateInvoice(ctx context.Context, inv *core.Invoice) error {
	_, err := s.invoices().InsertOne(ctx, inv)
	return err
}

func (s *Store) GetInvoice(ctx context.Context, id string) (*core.Invoice, error) {
	return one[core.Invoice](s.invoices().FindOne(ctx, bson.M{"id": id}))
}

func (s *Store) ListInvoices(ctx context.Context) ([]*core.Invoice, error) {
	cur, err := s.invoices().Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"created_at": 1}))
	return all[core.Invoice](ctx, cur, err)
}

func (s *Store) ListInvoicesByProjects(ctx context.Context, projectIDs []string) ([]*core.Invoice, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}
	cur, err := s.invoices().Find(ctx, bson.M{"project_id": bson.M{"$in": projectIDs}},
		options.Find().SetSort(bson.M{"created_at": 1}))
	return all[core.Invoice](ctx, cur, err)
}

func (s *Store) UpdateInvoiceStatus(ctx context.Context, id string, status core.InvoiceStatus, paidAt *time.Time) error {
	set := bson.M{"status": status}
	if paidAt != nil {
		set["paid_at"] = *paidAt
	}
	return matched(s.invoices().UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": set}))
}

// ---- messages ----

func (s *Store) CreateMessage(ctx context.Context, m *core.Message) error {
	_, err := s.messages().InsertOne(ctx, m)
	return err
}

func (s *Store) ListMessagesByProject(ctx context.Context, projectID string) ([]*core.Message, error) {
	cur, err := s.messages().Find(ctx, bson.M{"project_id": projectID},
		options.Find().SetSort(bson.M{"created_at": 1}))
	return all[core.Message](ctx, cur, err)
}

// ---- testimonials ----

func (s *Store) CreateTestimonial(ctx context.Context, t *core.Testimonial) error {
	_, err := s.testimonials().InsertOne(ctx, t)
	return err
}

func (s *Store) GetTestimonial(ctx context.Context, id string) (*core.Testimonial, error) {
	return one[core.Testimonial](s.testimonials().FindOne(ctx, bson.M{"id": id}))
}

func (s *Store) ListTestimonials(ctx context.Context, approvedOnly bool) ([]*core.Testimonial, error) {
	filter := bson.M{}
	if approvedOnly {
		filter["approved"] = true
	}
	cur, err := s.testimonials().Find(ctx, filter, options.Find().SetSort(bson.M{"created_at": 1}))
	return all[core.Testimonial](ctx, cur, err)
}

func (s *Store) CountApprovedTestimonials(ctx context.Context) (int, error) {
	n, err := s.testimonials().CountDocuments(ctx, bson.M{"approved": true})
	return int(n), err
}

func (s *Store) SetTestimonialApproved(ctx context.Context, id string, approved bool) error {
	return matched(s.testimonials().UpdateOne(ctx,
		bson.M{"id": id},
		bson.M{"$set": bson.M{"approved": approved}},
	))
}

func (s *Store) DeleteTestimonial(ctx context.Context, id string) error {
	res, err := s.testimonials().DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ---- content sections ----

func (s *Store) GetContentSection(ctx context.Context, sectionName string) (*core.ContentSection, error) {
	return one[core.ContentSection](s.content().FindOne(ctx, bson.M{"section_name": sectionName}))
}

func (s *Store) ListContentSections(ctx context.Context) ([]*core.ContentSection, error) {
	cur, err := s.content().Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"section_name": 1}))
	return all[core.ContentSection](ctx, cur, err)
}

func (s *Store) UpsertContentSection(ctx context.Context, cs *core.ContentSection) error {
	_, err := s.content().ReplaceOne(ctx,
		bson.M{"section_name": cs.SectionName},
		cs,
		options.Replace().SetUpsert(true),
	)
	return err
}

// ---- files ----

func (s *Store) CreateFileRecord(ctx context.Context, f *core.FileRecord) error {
	_, err := s.files().InsertOne(ctx, f)
	return err
}

func (s *Store) GetFileRecord(ctx context.Context, id string) (*core.FileRecord, error) {
	return one[core.FileRecord](s.files().FindOne(ctx, bson.M{"id": id}))
}

// ---- counter stats ----

func (s *Store) GetCounterStats(ctx context.Context) (*core.CounterStats, error) {
	return one[core.CounterStats](s.counters().FindOne(ctx, bson.M{}))
}

func (s *Store) PutCounterStats(ctx context.Context, cs *core.CounterStats) error {
	_, err := s.counters().ReplaceOne(ctx, bson.M{}, cs, options.Replace().SetUpsert(true))
	return err
}
