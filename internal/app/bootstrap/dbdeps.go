// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/curelo/landingcms/internal/app/store/sitecontent"
	userstore "github.com/curelo/landingcms/internal/app/store/users"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and backend dependencies for this WAFFLE app.
//
// This struct is created in ConnectDB and passed to subsequent lifecycle
// hooks: EnsureSchema, Startup, BuildHandler, and Shutdown. The Shutdown
// hook is responsible for closing these connections.
type DBDeps struct {
	// MongoDB client and database
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// BlobStorage holds the compressed document revisions.
	BlobStorage storage.Store

	// Content is the persistence gateway store (pointer in Mongo, blobs in BlobStorage).
	Content *sitecontent.Store

	// Users reads operator accounts from the users file.
	Users *userstore.Store
}
