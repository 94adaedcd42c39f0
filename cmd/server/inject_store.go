package main

import (
	"github.com/google/wire"
	_ "github.com/lib/pq"
	"github.com/spf13/viper"
	"github.com/tsenart/nap"

	"github.com/lumapay/onboard/store/db"
	"github.com/lumapay/onboard/store/property"
	"github.com/lumapay/onboard/store/wallet"
)

var storeSet = wire.NewSet(
	provideDB,
	wallet.New,
	property.New,
)

func provideDB(v *viper.Viper) (*nap.DB, func(), error) {
	v.SetDefault("db.driver", "postgres")

	driver := v.GetString("db.driver")
	dsn := v.GetString("db.dsn")

	for _, replica := range v.GetStringSlice("db.replicas") {
		dsn += ";" + replica
	}

	conn, err := nap.Open(driver, dsn)
	if err != nil {
		return nil, nil, err
	}

	if err := db.Migrate(conn.Master()); err != nil {
		return nil, nil, err
	}

	return conn, func() { _ = conn.Close() }, nil
}
