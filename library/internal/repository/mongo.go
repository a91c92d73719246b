package repository

import (
	"context"
	"time"

	"github.com/Astemirdum/library-management/library/internal/errs"
	"github.com/Astemirdum/library-management/library/internal/model"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type mongoRepository struct {
	books   *mongo.Collection
	borrows *mongo.Collection
	now     func() time.Time
	log     *zap.Logger
}

func NewMongoRepository(db *mongo.Database, log *zap.Logger) *mongoRepository {
	return &mongoRepository{
		books:   db.Collection(booksCollection),
		borrows: db.Collection(borrowsCollection),
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		log:     log.Named("repo"),
	}
}

type bookDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	Title       string             `bson:"title"`
	Author      string             `bson:"author"`
	Genre       string             `bson:"genre"`
	ISBN        string             `bson:"isbn"`
	Description string             `bson:"description,omitempty"`
	Copies      int                `bson:"copies"`
	Available   bool               `bson:"available"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d bookDocument) model() model.Book {
	return model.Book{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Author:      d.Author,
		Genre:       model.Genre(d.Genre),
		ISBN:        d.ISBN,
		Description: d.Description,
		Copies:      d.Copies,
		Available:   d.Available,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

type borrowDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	Book      primitive.ObjectID `bson:"book"`
	Quantity  int                `bson:"quantity"`
	DueDate   time.Time          `bson:"dueDate"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

type summaryDocument struct {
	Book struct {
		Title string `bson:"title"`
		ISBN  string `bson:"isbn"`
	} `bson:"book"`
	TotalQuantity int `bson:"totalQuantity"`
}

// EnsureIndexes creates the unique isbn index and the borrow lookup index.
func (r *mongoRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.books.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "isbn", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return errors.Wrap(err, "books isbn index")
	}
	if _, err := r.borrows.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "book", Value: 1}},
	}); err != nil {
		return errors.Wrap(err, "borrows book index")
	}
	return nil
}

func (r *mongoRepository) CreateBook(ctx context.Context, book model.Book) (model.Book, error) {
	now := r.now()
	doc := bookDocument{
		ID:          primitive.NewObjectID(),
		Title:       book.Title,
		Author:      book.Author,
		Genre:       string(book.Genre),
		ISBN:        book.ISBN,
		Description: book.Description,
		Copies:      book.Copies,
		Available:   book.Available,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.books.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.Book{}, errs.ErrDuplicateISBN
		}
		return model.Book{}, errors.Wrap(err, "insert book")
	}
	return doc.model(), nil
}

func (r *mongoRepository) ListBooks(ctx context.Context, query model.ListBooksQuery) ([]model.Book, error) {
	filter := bson.M{}
	if query.Genre != "" {
		filter["genre"] = query.Genre
	}
	dir := 1
	if query.Order == model.SortDesc {
		dir = -1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: query.SortBy, Value: dir}}).
		SetLimit(int64(query.Limit))

	cur, err := r.books.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find books")
	}
	var docs []bookDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode books")
	}
	r.log.Debug("ListBooks", zap.Any("filter", filter), zap.Int("found", len(docs)))

	books := make([]model.Book, 0, len(docs))
	for _, d := range docs {
		books = append(books, d.model())
	}
	return books, nil
}

func (r *mongoRepository) GetBook(ctx context.Context, id string) (model.Book, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return model.Book{}, errs.ErrNotFound
	}
	var doc bookDocument
	if err := r.books.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, errors.Wrap(err, "find book")
	}
	return doc.model(), nil
}

func (r *mongoRepository) UpdateBook(ctx context.Context, id string, patch model.BookPatch) (model.Book, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return model.Book{}, errs.ErrNotFound
	}
	set := bson.M{"updatedAt": r.now()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Author != nil {
		set["author"] = *patch.Author
	}
	if patch.Genre != nil {
		set["genre"] = string(*patch.Genre)
	}
	if patch.ISBN != nil {
		set["isbn"] = *patch.ISBN
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Copies != nil {
		set["copies"] = *patch.Copies
	}
	if patch.Available != nil {
		set["available"] = *patch.Available
	}

	var doc bookDocument
	err = r.books.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return model.Book{}, errs.ErrNotFound
		case mongo.IsDuplicateKeyError(err):
			return model.Book{}, errs.ErrDuplicateISBN
		}
		return model.Book{}, errors.Wrap(err, "update book")
	}
	return doc.model(), nil
}

func (r *mongoRepository) DeleteBook(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errs.ErrNotFound
	}
	res, err := r.books.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return errors.Wrap(err, "delete book")
	}
	if res.DeletedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ReserveCopies matches the book only while copies >= quantity and applies
// the availability rule inside the same update pipeline.
func (r *mongoRepository) ReserveCopies(ctx context.Context, id string, quantity int) (model.Book, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return model.Book{}, errs.ErrNotFound
	}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"copies":    bson.M{"$subtract": bson.A{"$copies", quantity}},
			"updatedAt": r.now(),
		}}},
		{{Key: "$set", Value: bson.M{
			"available": bson.M{"$cond": bson.A{bson.M{"$lte": bson.A{"$copies", 0}}, false, "$available"}},
			"copies":    bson.M{"$max": bson.A{"$copies", 0}},
		}}},
	}

	var doc bookDocument
	err = r.books.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "copies": bson.M{"$gte": quantity}},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == nil {
		return doc.model(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return model.Book{}, errors.Wrap(err, "reserve copies")
	}

	book, err := r.GetBook(ctx, id)
	if err != nil {
		return model.Book{}, err
	}
	return model.Book{}, &errs.InsufficientCopiesError{Available: book.Copies}
}

func (r *mongoRepository) ReleaseCopies(ctx context.Context, id string, quantity int) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errs.ErrNotFound
	}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"copies":    bson.M{"$add": bson.A{"$copies", quantity}},
			"updatedAt": r.now(),
		}}},
		{{Key: "$set", Value: bson.M{
			"available": bson.M{"$or": bson.A{"$available", bson.M{"$gt": bson.A{"$copies", 0}}}},
		}}},
	}
	res, err := r.books.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return errors.Wrap(err, "release copies")
	}
	if res.MatchedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *mongoRepository) CreateBorrow(ctx context.Context, borrow model.Borrow) (model.Borrow, error) {
	bookID, err := primitive.ObjectIDFromHex(borrow.Book)
	if err != nil {
		return model.Borrow{}, errors.Wrap(err, "borrow book id")
	}
	now := r.now()
	doc := borrowDocument{
		ID:        primitive.NewObjectID(),
		Book:      bookID,
		Quantity:  borrow.Quantity,
		DueDate:   borrow.DueDate.UTC().Truncate(time.Millisecond),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.borrows.InsertOne(ctx, doc); err != nil {
		return model.Borrow{}, errors.Wrap(err, "insert borrow")
	}
	return model.Borrow{
		ID:        doc.ID.Hex(),
		Book:      doc.Book.Hex(),
		Quantity:  doc.Quantity,
		DueDate:   doc.DueDate,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

// BorrowSummary groups borrows per book and joins the book title and isbn.
// Groups whose book no longer exists are dropped by the $unwind stage.
func (r *mongoRepository) BorrowSummary(ctx context.Context) ([]model.BorrowSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":             "$book",
			"totalQuantity":   bson.M{"$sum": "$quantity"},
			"firstBorrowedAt": bson.M{"$min": "$createdAt"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "firstBorrowedAt", Value: 1}, {Key: "_id", Value: 1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         booksCollection,
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "bookDetails",
		}}},
		{{Key: "$unwind", Value: "$bookDetails"}},
		{{Key: "$project", Value: bson.M{
			"_id": 0,
			"book": bson.M{
				"title": "$bookDetails.title",
				"isbn":  "$bookDetails.isbn",
			},
			"totalQuantity": 1,
		}}},
	}
	cur, err := r.borrows.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrap(err, "aggregate borrows")
	}
	var docs []summaryDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode borrow summary")
	}

	summary := make([]model.BorrowSummary, 0, len(docs))
	for _, d := range docs {
		summary = append(summary, model.BorrowSummary{
			Book:          model.SummaryBook{Title: d.Book.Title, ISBN: d.Book.ISBN},
			TotalQuantity: d.TotalQuantity,
		})
	}
	return summary, nil
}
