package main

import (
	"fmt"
	"hash"
	"io"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	argon2 "github.com/mdouchement/simple-argon2"
	"github.com/muesli/coral"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/hkdf"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/acarli/itemstore/internal/database"
	"github.com/acarli/itemstore/internal/model"
	"github.com/acarli/itemstore/internal/server"
)

const dbname = "itemstore.db"

var (
	version  = "dev"
	revision = "none"
	date     = "unknown"

	cfg string
)

func main() {
	c := &coral.Command{
		Use:     "itemstore",
		Short:   "Item store HTTP service",
		Version: fmt.Sprintf("%s - build %.7s @ %s - %s", version, revision, date, runtime.Version()),
		Args:    coral.ExactArgs(0),
	}
	initCmd.Flags().StringVarP(&cfg, "config", "c", "", "Configuration file")
	c.AddCommand(initCmd)

	adduserCmd.Flags().StringVarP(&cfg, "config", "c", "", "Configuration file")
	c.AddCommand(adduserCmd)

	serverCmd.Flags().StringVarP(&cfg, "config", "c", "", "Configuration file")
	c.AddCommand(serverCmd)

	if err := c.Execute(); err != nil {
		logrus.Fatalf("%+v", err)
	}
}

func dbnameWithPath(path string) string {
	if len(path) == 0 {
		return dbname
	}
	return filepath.Join(path, dbname)
}

func kdf(l int, k []byte) []byte {
	nhash := func() hash.Hash {
		h, err := blake2b.New256(nil)
		if err != nil {
			panic(err)
		}
		return h
	}

	payload := make([]byte, l)

	kdf := hkdf.New(nhash, k, nil, nil)
	_, err := io.ReadFull(kdf, payload)
	if err != nil {
		panic(err)
	}

	return payload
}

func load() (*koanf.Koanf, error) {
	konf := koanf.New(".")
	if err := konf.Load(file.Provider(cfg), yaml.Parser()); err != nil {
		return nil, errors.Wrap(err, "could not load configuration")
	}

	level, err := logrus.ParseLevel(konf.String("log.level"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if filename := konf.String("log.file"); filename != "" {
		logrus.SetOutput(&lumberjack.Logger{
			Filename:   filename,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
		})
	}

	return konf, nil
}

// addUser provisions a login principal. Passwords are stored argon2-hashed.
func addUser(db database.Client, username, password string) error {
	if username == "" || password == "" {
		return errors.New("username and password must not be empty")
	}

	_, err := db.FindUserByUsername(username)
	if err == nil {
		return errors.Errorf("user %s already exists", username)
	}
	if !db.IsNotFound(err) {
		return errors.Wrap(err, "could not check user existence")
	}

	user := &model.User{Username: username}
	user.Password, err = argon2.GenerateFromPasswordString(password, argon2.Default)
	if err != nil {
		return errors.Wrap(err, "could not store user password safe")
	}
	user.PasswordUpdatedAt = time.Now().Unix()

	return errors.Wrap(db.Save(user), "could not persist user")
}

var (
	initCmd = &coral.Command{
		Use:   "init",
		Short: "Init the database and seed the configured users",
		Args:  coral.ExactArgs(0),
		RunE: func(_ *coral.Command, _ []string) error {
			konf, err := load()
			if err != nil {
				return err
			}

			if err := database.StormInit(dbnameWithPath(konf.String("database_path"))); err != nil {
				return err
			}

			var users []struct {
				Username string `koanf:"username"`
				Password string `koanf:"password"`
			}
			if err := konf.Unmarshal("users", &users); err != nil {
				return errors.Wrap(err, "could not parse users")
			}
			if len(users) == 0 {
				return nil
			}

			db, err := database.StormOpen(dbnameWithPath(konf.String("database_path")))
			if err != nil {
				return errors.Wrap(err, "could not open database")
			}
			defer db.Close()

			for _, u := range users {
				if err := addUser(db, u.Username, u.Password); err != nil {
					return err
				}
				logrus.Infof("user %s created", u.Username)
			}
			return nil
		},
	}

	//
	//
	adduserCmd = &coral.Command{
		Use:   "adduser USERNAME PASSWORD",
		Short: "Add a login principal to the database",
		Args:  coral.ExactArgs(2),
		RunE: func(_ *coral.Command, args []string) error {
			konf, err := load()
			if err != nil {
				return err
			}

			db, err := database.StormOpen(dbnameWithPath(konf.String("database_path")))
			if err != nil {
				return errors.Wrap(err, "could not open database")
			}
			defer db.Close()

			return addUser(db, args[0], args[1])
		},
	}

	//
	//
	serverCmd = &coral.Command{
		Use:   "server",
		Short: "Start server",
		Args:  coral.ExactArgs(0),
		RunE: func(_ *coral.Command, _ []string) error {
			konf, err := load()
			if err != nil {
				return err
			}

			if konf.String("secret_key") == "" {
				return errors.New("secret_key not found")
			}

			db, err := database.StormOpen(dbnameWithPath(konf.String("database_path")))
			if err != nil {
				return errors.Wrap(err, "could not open database")
			}
			defer db.Close()

			ttl := konf.Duration("session.access_token_ttl")
			if ttl == 0 {
				ttl = 30 * time.Minute
			}
			limit := konf.Int("items.list_limit")
			if limit == 0 {
				limit = 10
			}
			limitMax := konf.Int("items.list_limit_max")
			if limitMax == 0 {
				limitMax = 100
			}

			engine := server.EchoEngine(server.Controller{
				Version:                   version,
				Database:                  db,
				SigningKey:                kdf(32, konf.MustBytes("secret_key")),
				AccessTokenExpirationTime: ttl,
				RequireAuthOnRead:         konf.Bool("items.require_auth_on_read"),
				RequireAuthOnWrite:        konf.Bool("items.require_auth_on_write"),
				ListLimit:                 limit,
				ListLimitMax:              limitMax,
			})
			server.PrintRoutes(engine)

			address := konf.String("address")
			message := "could not run server"
			logrus.Infof("server listening on %s", address)
			parts := strings.Split(address, ":")
			if len(parts) == 2 && parts[0] == "unix" {
				socketFile := parts[1]
				if _, err := os.Stat(socketFile); err == nil {
					logrus.Infof("removing existing %s", socketFile)
					os.Remove(socketFile)
				}
				defer os.Remove(socketFile)
				listener, err := net.Listen(parts[0], socketFile)
				if err != nil {
					return err
				}
				return errors.Wrap(engine.Server.Serve(listener), message)
			}
			return errors.Wrap(engine.Start(address), message)
		},
	}
)
