package blobstore

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/campus-site/core/internal/models"
	"github.com/campus-site/core/internal/pkg/apperr"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultBucketName = "uploads"
	DefaultChunkSize  = 255 * 1024
)

// GridFSOptions configures the GridFS driver.
type GridFSOptions struct {
	Bucket         string
	ChunkSizeBytes int32
}

// GridFS stores blobs in a MongoDB GridFS bucket: chunks in
// <bucket>.chunks, metadata in the `metadata` field of <bucket>.files.
type GridFS struct {
	db   *mongo.Database
	opts GridFSOptions
}

// gridfsFile mirrors a <bucket>.files document.
type gridfsFile struct {
	ID         primitive.ObjectID `bson:"_id"`
	Length     int64              `bson:"length"`
	ChunkSize  int32              `bson:"chunkSize"`
	UploadDate time.Time          `bson:"uploadDate"`
	Filename   string             `bson:"filename"`
	Metadata   models.BlobMeta    `bson:"metadata"`
}

func (f gridfsFile) info() models.BlobInfo {
	return models.BlobInfo{
		ID:         models.BlobIDFromObjectID(f.ID),
		Filename:   f.Filename,
		Length:     f.Length,
		ChunkSize:  f.ChunkSize,
		UploadDate: f.UploadDate,
		Meta:       f.Metadata,
	}
}

// NewGridFS returns a GridFS-backed store on db.
func NewGridFS(db *mongo.Database, opts GridFSOptions) *GridFS {
	if opts.Bucket == "" {
		opts.Bucket = DefaultBucketName
	}
	if opts.ChunkSizeBytes <= 0 {
		opts.ChunkSizeBytes = DefaultChunkSize
	}
	return &GridFS{db: db, opts: opts}
}

// bucket opens a fresh bucket handle per call. Deadlines are set on the
// handle, so sharing one across requests would let them clobber each other.
func (g *GridFS) bucket() (*gridfs.Bucket, error) {
	return gridfs.NewBucket(g.db,
		options.GridFSBucket().
			SetName(g.opts.Bucket).
			SetChunkSizeBytes(g.opts.ChunkSizeBytes),
	)
}

func (g *GridFS) Put(ctx context.Context, r io.Reader, filename string, meta models.BlobMeta) (models.BlobID, error) {
	if err := checkMeta(meta); err != nil {
		return models.BlobID{}, err
	}
	b, err := g.bucket()
	if err != nil {
		return models.BlobID{}, apperr.Storage("blob.put", filename, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := b.SetWriteDeadline(deadline); err != nil {
			return models.BlobID{}, apperr.Storage("blob.put", filename, err)
		}
	}

	// The files document is written only after the last chunk; on failure
	// the upload stream aborts and removes the chunks already written.
	id := models.NewBlobID()
	err = b.UploadFromStreamWithID(id.ObjectID(), filename, &ctxReader{ctx: ctx, r: r},
		options.GridFSUpload().SetMetadata(meta))
	if err != nil {
		return models.BlobID{}, apperr.Storage("blob.put", filename, err)
	}
	return id, nil
}

func (g *GridFS) Get(ctx context.Context, id models.BlobID) (io.ReadCloser, error) {
	b, err := g.bucket()
	if err != nil {
		return nil, apperr.Storage("blob.get", id.String(), err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := b.SetReadDeadline(deadline); err != nil {
			return nil, apperr.Storage("blob.get", id.String(), err)
		}
	}
	stream, err := b.OpenDownloadStream(id.ObjectID())
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, apperr.NotFound("blob.get", id.String())
		}
		return nil, apperr.Storage("blob.get", id.String(), err)
	}
	return stream, nil
}

func (g *GridFS) Stat(ctx context.Context, id models.BlobID) (*models.BlobInfo, error) {
	var file gridfsFile
	err := g.files().FindOne(ctx, bson.M{"_id": id.ObjectID()}).Decode(&file)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperr.Storage("blob.stat", id.String(), err)
	}
	info := file.info()
	return &info, nil
}

func (g *GridFS) Delete(ctx context.Context, id models.BlobID) error {
	b, err := g.bucket()
	if err != nil {
		return apperr.Storage("blob.delete", id.String(), err)
	}
	if err := b.DeleteContext(ctx, id.ObjectID()); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return apperr.NotFound("blob.delete", id.String())
		}
		return apperr.Storage("blob.delete", id.String(), err)
	}
	return nil
}

// List returns every matching blob, newest first. There is no pagination.
func (g *GridFS) List(ctx context.Context, filter models.BlobFilter) ([]models.BlobInfo, error) {
	query := bson.M{}
	if filter.Category != "" {
		query["metadata.category"] = filter.Category
	}
	if filter.UploadedBy != "" {
		query["metadata.uploadedBy"] = filter.UploadedBy
	}

	cur, err := g.files().Find(ctx, query, options.Find().SetSort(bson.D{{Key: "uploadDate", Value: -1}}))
	if err != nil {
		return nil, apperr.Storage("blob.list", "", err)
	}
	defer cur.Close(ctx)

	items := make([]models.BlobInfo, 0)
	for cur.Next(ctx) {
		var file gridfsFile
		if err := cur.Decode(&file); err != nil {
			return nil, apperr.Storage("blob.list", "", err)
		}
		items = append(items, file.info())
	}
	if err := cur.Err(); err != nil {
		return nil, apperr.Storage("blob.list", "", err)
	}
	return items, nil
}

// EnsureIndexes creates the metadata indexes used by List.
func (g *GridFS) EnsureIndexes(ctx context.Context) error {
	_, err := g.files().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "metadata.category", Value: 1}, {Key: "uploadDate", Value: -1}}},
		{Keys: bson.D{{Key: "metadata.uploadedBy", Value: 1}, {Key: "uploadDate", Value: -1}}},
	})
	return err
}

func (g *GridFS) files() *mongo.Collection {
	return g.db.Collection(g.opts.Bucket + ".files")
}

// ctxReader stops feeding the upload stream once ctx is done, so an aborted
// request does not keep writing chunks.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
