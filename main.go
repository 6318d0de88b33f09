package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Tabitha-Home/THMS-CLIENT/authentication"
	"github.com/Tabitha-Home/THMS-CLIENT/cache"
	"github.com/Tabitha-Home/THMS-CLIENT/children"
	. "github.com/Tabitha-Home/THMS-CLIENT/shared"
	"github.com/Tabitha-Home/THMS-CLIENT/storage"
	"github.com/Tabitha-Home/THMS-CLIENT/transport"

	"github.com/facebookgo/inject"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

var (
	ctx             = context.Background()
	logger          = NewLogger("thms-client")
	config          *AppConfig
	stringGenerator = &StringGenerator{}
	notifier        = &LogNotifier{}

	session        = &authentication.Session{}
	apiClient      = &transport.DefaultClient{}
	photoStore     = &storage.LocalOverrideStore{}
	childService   = &children.ChildService{}
	queries        = &cache.Queries{}
	cachedChildren = &cache.CachedChildService{}
)

func main() {
	// a missing .env is fine, the environment may be set directly
	_ = godotenv.Load()

	checkErrAndExit(initAppConfiguration())
	checkErrAndExit(initApplicationGraph())

	session.OnUnauthorized = func(loginUrl string) {
		fmt.Fprintf(os.Stderr, "session expired, please login again: %s%s\n", config.ApiBaseUrl, loginUrl)
	}

	checkErrAndExit(newRootCmd().Execute())
}

func initAppConfiguration() (err error) {
	config, err = InitAppConfiguration()
	return
}

func initApplicationGraph() error {
	g := inject.Graph{}
	g.Provide(
		&inject.Object{Value: config},
		&inject.Object{Value: logger},
		&inject.Object{Value: stringGenerator},
		&inject.Object{Value: notifier},
		&inject.Object{Value: session},
		&inject.Object{Value: apiClient},
		&inject.Object{Value: photoStore},
		&inject.Object{Value: childService, Name: "childService"},
		&inject.Object{Value: queries},
		&inject.Object{Value: cachedChildren},
	)
	if err := g.Populate(); err != nil {
		return errors.Wrap(err, "failed to populate")
	}
	return nil
}

func checkErrAndExit(err error) {
	if err != nil {
		logger.Err(ctx, err.Error())
		os.Exit(1)
	}
}
