// This file is a helper for running tests with testcontainers.
// It is used by the cmd/testcontainers standalone executable and by the integration and e2e tests.
// Expects environment variables to be loaded from .env files; StartDatabase fills in defaults.
//

package helpers

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/localnerve/relationsdb/data"
	"github.com/localnerve/relationsdb/internal/config"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

const relationsDBImage = "relationsdb-test:latest"

type TestContainers struct {
	Network                     *testcontainers.DockerNetwork
	DBContainer                 testcontainers.Container
	AuthorizerContainer         testcontainers.Container
	RelationsDBContainer        testcontainers.Container
	RelationsDBBuilderContainer testcontainers.Container
}

func (tc *TestContainers) Terminate(t *testing.T) {
	ctx := context.Background()
	if tc.RelationsDBContainer != nil {
		if err := tc.RelationsDBContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate RelationsDB: %v", err)
		}
	}
	if tc.RelationsDBBuilderContainer != nil {
		if err := tc.RelationsDBBuilderContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate RelationsDB Builder: %v", err)
		}
	}
	if tc.AuthorizerContainer != nil {
		if err := tc.AuthorizerContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate Authorizer: %v", err)
		}
	}
	if tc.DBContainer != nil {
		if err := tc.DBContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate %s: %v", os.Getenv("DB_TYPE"), err)
		}
	}
	if tc.Network != nil {
		if err := tc.Network.Remove(ctx); err != nil {
			logMessage(t, "Failed to remove network: %v", err)
		}
	}
}

// dbDefaults are used by StartDatabase when the environment has no value.
var dbDefaults = map[string]string{
	"DB_TYPE":          "mariadb",
	"DB_APP_DATABASE":  "relations",
	"DB_APP_USER":      "relations_app",
	"DB_APP_PASSWORD":  "relations-app-pass",
	"DB_USER":          "relations_user",
	"DB_PASSWORD":      "relations-user-pass",
	"DB_ROOT_PASSWORD": "relations-root-pass",
	"AUTHZ_DATABASE":   "authorizer",
}

func dbDefaultImage(dbType string) (string, string) {
	if dbType == "postgres" {
		return "postgres:17", "5432"
	}
	return "mariadb:11", "3306"
}

func setDefaultEnv(t *testing.T) {
	for key, value := range dbDefaults {
		if os.Getenv(key) == "" {
			t.Setenv(key, value)
		}
	}
	img, port := dbDefaultImage(os.Getenv("DB_TYPE"))
	if os.Getenv("DB_IMAGE") == "" {
		t.Setenv("DB_IMAGE", img)
	}
	if os.Getenv("DB_PORT") == "" {
		t.Setenv("DB_PORT", port)
	}
}

// startDBContainer starts the database container from DB_TYPE and DB_IMAGE and
// runs the relationsdb init scripts against it.
func startDBContainer(t *testing.T, testContainers *TestContainers, networkName, alias string) (string, nat.Port) {
	ctx := context.Background()
	dbType := os.Getenv("DB_TYPE")

	tcpDbPort, err := nat.NewPort("tcp", os.Getenv("DB_PORT"))
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to create DB port")
	}

	request := testcontainers.ContainerRequest{
		Image:        os.Getenv("DB_IMAGE"),
		ExposedPorts: []string{string(tcpDbPort)},
		Env:          getDBInitEnvMap(dbType),
		WaitingFor:   wait.ForListeningPort(tcpDbPort).WithStartupTimeout(60 * time.Second),
	}
	if networkName != "" {
		request.Networks = []string{networkName}
		request.NetworkAliases = map[string][]string{
			networkName: {alias},
		}
	}

	dbContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: request,
		Started:          true,
	})
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to start Database")
	}
	testContainers.DBContainer = dbContainer

	// Initialize the database(s)
	dbHost, _ := dbContainer.Host(ctx)
	dbPort, _ := dbContainer.MappedPort(ctx, tcpDbPort)
	switch dbType {
	case "postgres":
		err = performPostgresDBInit(dbHost, dbPort)
	case "mysql", "mariadb":
		err = performMySqlDBInit(dbHost, dbPort)
	default:
		err = fmt.Errorf("unsupported test database type: %s", dbType)
	}
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to initialize databases")
	}

	return dbHost, dbPort
}

// StartDatabase starts an initialized database container for tests that talk to
// the database directly. The returned config points at the mapped port.
func StartDatabase(t *testing.T) (*config.Config, *TestContainers) {
	t.Helper()
	setDefaultEnv(t)

	testContainers := &TestContainers{}
	host, port := startDBContainer(t, testContainers, "", "")
	t.Cleanup(func() { testContainers.Terminate(t) })

	cfg := &config.Config{
		DBType:               os.Getenv("DB_TYPE"),
		DBHost:               host,
		DBPort:               port.Port(),
		DBAppDatabase:        os.Getenv("DB_APP_DATABASE"),
		DBAppUser:            os.Getenv("DB_APP_USER"),
		DBAppPassword:        os.Getenv("DB_APP_PASSWORD"),
		DBAppConnectionLimit: 5,
		DBUser:               os.Getenv("DB_USER"),
		DBPassword:           os.Getenv("DB_PASSWORD"),
		DBConnectionLimit:    5,
		DBLogLevel:           "silent",
		AuthzURL:             "http://localhost:9999",
		AuthzClientID:        "test_client",
		ChannelAddPolicy:     "member",
		NameMinLength:        1,
		NameMaxLength:        32,
		MessageMaxLength:     2000,
	}
	return cfg, testContainers
}

func CreateAllTestContainers(t *testing.T) (*TestContainers, error) {
	ctx := context.Background()
	testContainers := &TestContainers{}

	debugContainer := os.Getenv("DEBUG_CONTAINER")

	// Create a network
	nw, err := network.New(ctx)
	if err != nil {
		exitWithError(t, err, "Failed to create network")
	}
	testContainers.Network = nw
	networkName := nw.Name

	// Create, start and initialize the Database container
	dbType := os.Getenv("DB_TYPE")
	dbNetworkName := os.Getenv("DB_HOST")
	startDBContainer(t, testContainers, networkName, dbNetworkName)

	// Create and start the Authorizer container
	authzNetworkName := "authorizer"
	tcpAuthzPort, err := nat.NewPort("tcp", os.Getenv("AUTHZ_PORT"))
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to create Authorizer port")
	}
	authzLogLevel := "info"
	if debugContainer == "true" {
		authzLogLevel = "debug"
	}
	authorizerContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        os.Getenv("AUTHZ_IMAGE"),
			ExposedPorts: []string{string(tcpAuthzPort)},
			Env: map[string]string{
				"ENV":           "production",
				"CLIENT_ID":     os.Getenv("AUTHZ_CLIENT_ID"),
				"PORT":          os.Getenv("AUTHZ_PORT"),
				"DATABASE_TYPE": dbType,
				"DATABASE_NAME": os.Getenv("AUTHZ_DATABASE"),
				"DATABASE_URL":  authorizerDatabaseURL(dbType, dbNetworkName),
				"ADMIN_SECRET":  os.Getenv("AUTHZ_ADMIN_SECRET"),
				"ROLES":         "admin,user",
				"DEFAULT_ROLES": "user",
				"LOG_LEVEL":     authzLogLevel,
			},
			WaitingFor: wait.ForLog("Authorizer running at PORT:").WithStartupTimeout(10 * time.Second),
			Networks:   []string{networkName},
			NetworkAliases: map[string][]string{
				networkName: {authzNetworkName},
			},
		},
		Started: true,
	})
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to start Authorizer")
	}
	testContainers.AuthorizerContainer = authorizerContainer

	// Log the localhost and mapped ports for Authorizer for test processes
	authzHost, _ := authorizerContainer.Host(ctx)
	authzPort, _ := authorizerContainer.MappedPort(ctx, tcpAuthzPort)
	logMessage(t, "AUTHZ_URL=%s:%s", authzHost, authzPort.Port())

	imageExists, err := imageExists(ctx, relationsDBImage)
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to check if image exists")
	}

	portNumber := os.Getenv("PORT")
	tcpPort, err := nat.NewPort("tcp", portNumber)
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to create RelationsDB port")
	}

	exposedPorts := []string{string(tcpPort)}
	if debugContainer == "true" {
		exposedPorts = append(exposedPorts, "2345/tcp")
	}

	hostConfigModifier := func(hostConfig *container.HostConfig) {
		if debugContainer == "true" {
			hostConfig.PortBindings = nat.PortMap{
				"2345/tcp": []nat.PortBinding{
					{HostIP: "127.0.0.1", HostPort: "2345"}, // Force local 2345
				},
			}
			hostConfig.CapAdd = []string{"SYS_PTRACE"}
			hostConfig.SecurityOpt = []string{"apparmor:unconfined"}
		}
	}

	var waitStrategy wait.Strategy
	waitStrategy = wait.ForHTTP("/metrics").WithPort(tcpPort).WithStartupTimeout(30 * time.Second)
	if debugContainer == "true" {
		waitStrategy = wait.ForLog("API server listening at: [::]:2345").WithStartupTimeout(5 * time.Minute)
	}

	// RelationsDB container request, the image source is added below
	containerRequest := testcontainers.ContainerRequest{
		ExposedPorts: exposedPorts,
		Env: map[string]string{
			"DB_TYPE":                 dbType,
			"DB_HOST":                 dbNetworkName,
			"DB_PORT":                 os.Getenv("DB_PORT"),
			"DB_APP_DATABASE":         os.Getenv("DB_APP_DATABASE"),
			"DB_APP_USER":             os.Getenv("DB_APP_USER"),
			"DB_APP_PASSWORD":         os.Getenv("DB_APP_PASSWORD"),
			"DB_USER":                 os.Getenv("DB_USER"),
			"DB_PASSWORD":             os.Getenv("DB_PASSWORD"),
			"DB_APP_CONNECTION_LIMIT": os.Getenv("DB_APP_CONNECTION_LIMIT"),
			"DB_CONNECTION_LIMIT":     os.Getenv("DB_CONNECTION_LIMIT"),
			"AUTHZ_URL":               fmt.Sprintf("http://%s:%s", authzNetworkName, os.Getenv("AUTHZ_PORT")),
			"AUTHZ_CLIENT_ID":         os.Getenv("AUTHZ_CLIENT_ID"),
			"CHANNEL_ADD_POLICY":      os.Getenv("CHANNEL_ADD_POLICY"),
			"LOG_FORMAT":              "json",
			"PORT":                    portNumber,
		},
		HostConfigModifier: hostConfigModifier,
		WaitingFor:         waitStrategy,
		Networks:           []string{networkName},
	}

	if debugContainer == "true" {
		containerRequest.Entrypoint = []string{
			"/usr/local/bin/dlv",
			"--listen=:2345",
			"--headless=true",
			"--api-version=2",
			"--accept-multiclient",
			"exec",
			"./relationsdb",
		}
	}

	if !imageExists {
		resourceReaperSessionID := uuid.New().String()

		buildArgs := map[string]*string{
			"RESOURCE_REAPER_SESSION_ID": &resourceReaperSessionID,
		}
		if debugContainer == "true" {
			buildArgs["DEBUG"] = &debugContainer
		}

		buildContext := os.Getenv("TESTCONTAINERS_BUILD_CONTEXT")
		if buildContext == "" {
			buildContext = "../.."
		}

		logMessage(t, "Image %s does not exist, building...", relationsDBImage)
		builderContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				FromDockerfile: testcontainers.FromDockerfile{
					Context:    buildContext,
					Dockerfile: "Dockerfile",
					Repo:       "relationsdb-test-builder",
					Tag:        "latest",
					BuildArgs:  buildArgs,
					BuildOptionsModifier: func(opts *build.ImageBuildOptions) {
						opts.Target = "builder"
					},
					PrintBuildLog: true,
				},
			},
			Started: false,
		})
		if err != nil {
			testContainers.Terminate(t)
			exitWithError(t, err, "Failed to build relationsdb-test-builder")
		}
		testContainers.RelationsDBBuilderContainer = builderContainer

		repo, tag, _ := strings.Cut(relationsDBImage, ":")
		containerRequest.FromDockerfile = testcontainers.FromDockerfile{
			Context:    buildContext,
			Dockerfile: "Dockerfile",
			Repo:       repo,
			Tag:        tag,
			KeepImage:  true, // reused by the next run
			BuildArgs:  buildArgs,
			BuildOptionsModifier: func(opts *build.ImageBuildOptions) {
				opts.Target = "runtime"
			},
			PrintBuildLog: true,
		}
	} else {
		logMessage(t, "Image %s exists, reusing...", relationsDBImage)
		containerRequest.Image = relationsDBImage
	}

	relationsContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: containerRequest,
		Started:          true,
	})
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to start RelationsDB")
	}
	testContainers.RelationsDBContainer = relationsContainer

	host, _ := relationsContainer.Host(ctx)
	port, _ := relationsContainer.MappedPort(ctx, tcpPort)
	logMessage(t, "BASE_URL=%s:%s", host, port.Port())

	logMessage(t, "RelationsDB testcontainer started successfully")
	return testContainers, nil
}

func authorizerDatabaseURL(dbType, dbHost string) string {
	if dbType == "postgres" {
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			os.Getenv("DB_APP_USER"), os.Getenv("DB_APP_PASSWORD"), dbHost, os.Getenv("DB_PORT"), os.Getenv("AUTHZ_DATABASE"))
	}
	return fmt.Sprintf("root:%s@tcp(%s:%s)/%s", os.Getenv("DB_ROOT_PASSWORD"), dbHost, os.Getenv("DB_PORT"), os.Getenv("AUTHZ_DATABASE"))
}

func getDBInitEnvMap(dbType string) map[string]string {
	switch dbType {
	case "postgres":
		return map[string]string{
			"POSTGRES_PASSWORD": os.Getenv("DB_APP_PASSWORD"),
			"POSTGRES_USER":     os.Getenv("DB_APP_USER"),
			"POSTGRES_DB":       os.Getenv("DB_APP_DATABASE"),
		}
	case "mariadb", "mysql":
		return map[string]string{
			"MYSQL_ROOT_PASSWORD": os.Getenv("DB_ROOT_PASSWORD"),
			"MYSQL_DATABASE":      os.Getenv("DB_APP_DATABASE"),
			"MYSQL_USER":          os.Getenv("DB_APP_USER"),
			"MYSQL_PASSWORD":      os.Getenv("DB_APP_PASSWORD"),
		}
	}
	return nil
}

// openReady opens a single connection pool and waits up to 30 seconds for it to answer.
func openReady(driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	// USE statements in the init scripts are per connection
	db.SetMaxOpenConns(1)

	for i := 0; i < 30; i++ {
		err = db.Ping()
		if err == nil {
			return db, nil
		}
		time.Sleep(1 * time.Second)
	}
	db.Close()
	return nil, fmt.Errorf("%s not ready after 30 seconds: %w", driver, err)
}

func performMySqlDBInit(dbHost string, dbPort nat.Port) error {
	db, err := openReady("mysql", fmt.Sprintf("root:%s@tcp(%s:%s)/", os.Getenv("DB_ROOT_PASSWORD"), dbHost, dbPort.Port()))
	if err != nil {
		return err
	}
	defer db.Close()

	statements := []struct {
		query string
		what  string
	}{
		{fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", os.Getenv("AUTHZ_DATABASE")), "create " + os.Getenv("AUTHZ_DATABASE")},
		{fmt.Sprintf("CREATE USER IF NOT EXISTS '%s'@'%%' IDENTIFIED BY '%s'", os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD")), "create user " + os.Getenv("DB_USER")},
		{fmt.Sprintf("CREATE USER IF NOT EXISTS '%s'@'%%' IDENTIFIED BY '%s'", os.Getenv("DB_APP_USER"), os.Getenv("DB_APP_PASSWORD")), "create user " + os.Getenv("DB_APP_USER")},
		{fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s.authorizer_users (id CHAR(36) NOT NULL PRIMARY KEY)", os.Getenv("AUTHZ_DATABASE")), "create authorizer_users"},
	}
	for _, s := range statements {
		if _, err := db.Exec(s.query); err != nil {
			return fmt.Errorf("failed to %s: %w", s.what, err)
		}
	}

	if err := executeSQL(db, data.Expand(data.InitdbMariaDBTables)); err != nil {
		return fmt.Errorf("failed to execute tables init sql: %w", err)
	}
	if err := executeSQL(db, data.Expand(data.InitdbMariaDBPrivileges)); err != nil {
		return fmt.Errorf("failed to execute privileges init sql: %w", err)
	}
	return nil
}

// performPostgresDBInit creates the read user. The app user is the database
// owner created by the image and builds the schema on first start.
func performPostgresDBInit(dbHost string, dbPort nat.Port) error {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		os.Getenv("DB_APP_USER"), os.Getenv("DB_APP_PASSWORD"), dbHost, dbPort.Port(), os.Getenv("DB_APP_DATABASE"))
	db, err := openReady("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(fmt.Sprintf("CREATE DATABASE %s", os.Getenv("AUTHZ_DATABASE"))); err != nil {
		return fmt.Errorf("failed to create %s: %w", os.Getenv("AUTHZ_DATABASE"), err)
	}
	if err := executeSQL(db, data.Expand(data.InitdbPostgresPrivileges)); err != nil {
		return fmt.Errorf("failed to execute privileges init sql: %w", err)
	}
	return nil
}

func executeSQL(db *sql.DB, script string) error {
	lines := strings.Split(script, "\n")

	stripped := make([]string, 0, len(lines))
	for _, l := range lines {
		stripped = append(stripped, excludeComment(l))
	}

	queries := strings.Split(strings.Join(stripped, " "), ";")
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("%s : when executing > %s", err.Error(), q)
		}
	}
	return nil
}

// excludeComment drops a trailing -- comment that is not inside a quoted string.
func excludeComment(line string) string {
	const (
		d = "\""
		s = "'"
		c = "--"
	)

	var nc string
	ck := line
	mx := len(line) + 1

	for {
		if len(ck) == 0 {
			return nc
		}

		di := strings.Index(ck, d)
		si := strings.Index(ck, s)
		ci := strings.Index(ck, c)

		if di < 0 {
			di = mx
		}
		if si < 0 {
			si = mx
		}
		if ci < 0 {
			ci = mx
		}

		var quote string
		switch {
		case di < si && di < ci:
			quote = d
		case si < di && si < ci:
			quote = s
		case ci < di && ci < si:
			return nc + ck[:ci]
		default:
			return nc + ck
		}

		qi := strings.Index(ck, quote)
		nc += ck[:qi+1]
		ck = ck[qi+1:]

		ei := strings.Index(ck, quote)
		if ei < 0 {
			return nc + ck
		}
		nc += ck[:ei+1]
		ck = ck[ei+1:]
	}
}

func imageExists(ctx context.Context, imageName string) (bool, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return false, err
	}
	defer cli.Close()

	images, err := cli.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return false, err
	}

	for _, img := range images {
		for _, tag := range img.RepoTags {
			if tag == imageName {
				return true, nil
			}
		}
	}

	return false, nil
}

func exitWithError(t *testing.T, err error, msg string) {
	if t != nil {
		t.Fatalf(msg+": %v", err)
	} else {
		fmt.Printf(msg+": %v\n", err)
		os.Exit(1)
	}
}

func logMessage(t *testing.T, format string, args ...any) {
	if t != nil {
		t.Logf(format, args...)
	} else {
		fmt.Printf(format+"\n", args...)
	}
}
