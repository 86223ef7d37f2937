package content

import (
	"context"
	"errors"
	"time"

	"github.com/campus-site/core/internal/models"
	"github.com/campus-site/core/internal/pkg/apperr"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName holds every variant, discriminated by contentType.
const CollectionName = "contents"

// MongoRepository stores documents in a single Mongo collection.
type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

// EnsureIndexes creates the unique slug index and the listing indexes.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "contentType", Value: 1}, {Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "scheduledAt", Value: 1}}},
	})
	return err
}

func (r *MongoRepository) Insert(ctx context.Context, doc *models.Document) error {
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.DuplicateKey("content.insert", "slug", err)
		}
		return apperr.Storage("content.insert", doc.ID.String(), err)
	}
	return nil
}

func (r *MongoRepository) FindByID(ctx context.Context, id models.ContentID) (*models.Document, error) {
	var doc models.Document
	if err := r.coll.FindOne(ctx, bson.M{"_id": id.ObjectID()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperr.Storage("content.find", id.String(), err)
	}
	return &doc, nil
}

func (r *MongoRepository) IncrementViews(ctx context.Context, id models.ContentID) (*models.Document, error) {
	var doc models.Document
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id.ObjectID()},
		bson.M{"$inc": bson.M{"views": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperr.Storage("content.views", id.String(), err)
	}
	return &doc, nil
}

func (r *MongoRepository) SlugOwner(ctx context.Context, slug string) (models.ContentID, bool, error) {
	var row struct {
		ID models.ContentID `bson:"_id"`
	}
	err := r.coll.FindOne(ctx, bson.M{"slug": slug}, options.FindOne().SetProjection(bson.M{"_id": 1})).Decode(&row)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.ContentID{}, false, nil
		}
		return models.ContentID{}, false, apperr.Storage("content.slug", slug, err)
	}
	return row.ID, true, nil
}

func (r *MongoRepository) List(ctx context.Context, filter ListFilter) ([]models.Document, error) {
	query := bson.M{}
	if filter.Type != nil {
		query["contentType"] = *filter.Type
	}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}

	cur, err := r.coll.Find(ctx, query,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, apperr.Storage("content.list", "", err)
	}
	defer cur.Close(ctx)

	docs := make([]models.Document, 0)
	if err := cur.All(ctx, &docs); err != nil {
		return nil, apperr.Storage("content.list", "", err)
	}
	return docs, nil
}

// Replace $sets every field except views so a concurrent IncrementViews is
// never lost. doc is refreshed with the stored result.
func (r *MongoRepository) Replace(ctx context.Context, doc *models.Document) error {
	fields, err := replaceFields(doc)
	if err != nil {
		return apperr.Storage("content.replace", doc.ID.String(), err)
	}
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": doc.ID.ObjectID()},
		bson.M{"$set": fields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFound("content.replace", doc.ID.String())
		}
		if mongo.IsDuplicateKeyError(err) {
			return apperr.DuplicateKey("content.replace", "slug", err)
		}
		return apperr.Storage("content.replace", doc.ID.String(), err)
	}
	return nil
}

// replaceFields encodes doc without _id and views.
func replaceFields(doc *models.Document) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	fields := bson.M{}
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	delete(fields, "_id")
	delete(fields, "views")
	return fields, nil
}

func (r *MongoRepository) Delete(ctx context.Context, id models.ContentID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.ObjectID()})
	if err != nil {
		return apperr.Storage("content.delete", id.String(), err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("content.delete", id.String())
	}
	return nil
}

func (r *MongoRepository) PublishDue(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"status": models.StatusDraft, "scheduledAt": bson.M{"$lte": now}},
		bson.M{"$set": bson.M{"status": models.StatusPublished, "updatedAt": now}},
	)
	if err != nil {
		return 0, apperr.Storage("content.publish_due", "", err)
	}
	return res.ModifiedCount, nil
}
