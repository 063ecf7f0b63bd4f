package orchestrator

import (
	"context"
	"fmt"
	"time"

	"arrmada/internal/apps"
	"arrmada/internal/config"
	"arrmada/internal/probe"
	"arrmada/internal/qbt"
	"arrmada/internal/remote"
	"arrmada/internal/transport"
	"arrmada/pkg/logging"
)

const subsystem = "Orchestrator"

// ContainerRuntime is the container surface a convergence pass needs:
// readiness probing plus restarts and log access. Implemented by
// containerizer.DockerRuntime; nil disables every container step.
type ContainerRuntime interface {
	probe.ContainerRuntime

	// Restart restarts a compose service.
	Restart(ctx context.Context, service string) error

	// Logs returns a container's combined log output.
	Logs(ctx context.Context, container string) (string, error)
}

// Orchestrator drives one convergence pass over the configured stack.
type Orchestrator struct {
	cfg     *config.Config
	runtime ContainerRuntime
	client  *transport.Client

	sonarr   *apps.Arr
	radarr   *apps.Arr
	prowlarr *apps.Prowlarr
	sabnzbd  *apps.SABnzbd

	// qbtUser/qbtPass is the credential pair a qBittorrent session was
	// actually opened with; it may be the temporary admin password when
	// the configured pair was rejected and not rotated.
	qbtUser string
	qbtPass string
}

// New creates an orchestrator for cfg. runtime may be nil when no
// container runtime is available; restarts and log-based steps are then
// skipped.
func New(cfg *config.Config, runtime ContainerRuntime) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		runtime: runtime,
		client:  transport.New(cfg.Retry.Attempts, cfg.Retry.Delay),
		sabnzbd: apps.NewSABnzbd(cfg.SABnzbd, cfg.Paths),
	}
}

// Converge runs the full pass. The returned Run always carries every
// step recorded so far, including on abort.
func (o *Orchestrator) Converge(ctx context.Context) (*Run, error) {
	run := newRun()
	logging.Info(subsystem, "Starting convergence run %s", run.ID)

	o.waitForApps(ctx, run)
	if err := o.loadAPIKeys(ctx, run); err != nil {
		return run, err
	}

	o.pinUpdates(ctx, run)
	o.prepareQBittorrent(ctx, run)
	o.registerTorrentClients(ctx, run)
	o.enforceAuth(ctx, run)
	if err := o.seedAggregator(ctx, run); err != nil {
		return run, err
	}
	o.ensureRootFolders(ctx, run)
	o.convergeSABnzbd(ctx, run)
	o.tuneProtocols(ctx, run)
	o.restartApplications(ctx, run)

	logging.Info(subsystem, "Run %s finished: %d changed, %d failed of %d steps",
		run.ID, run.Changed(), run.Failed(), len(run.Results))
	return run, nil
}

// waitForApps blocks until every HTTP surface answers. A target that
// never answers is recorded but does not abort the pass: the steps that
// need it fail individually with better detail.
func (o *Orchestrator) waitForApps(ctx context.Context, run *Run) {
	targets := []struct {
		name    string
		url     string
		timeout time.Duration
	}{
		{"Radarr", o.cfg.Radarr.URL, o.cfg.WaitTimeout},
		{"Sonarr", o.cfg.Sonarr.URL, o.cfg.WaitTimeout},
		{"Prowlarr", o.cfg.Prowlarr.URL, o.cfg.WaitTimeout},
		{"qBittorrent", o.cfg.QBittorrent.URL, o.qbtWaitTimeout()},
	}
	for _, t := range targets {
		name := "wait for " + t.name
		if t.url == "" {
			run.skip(name, "no URL configured")
			continue
		}
		if probe.NewHTTPProbe(t.name, t.url).WaitUntilReady(ctx, t.timeout) {
			run.add(name, StatusOK, t.url+" is answering")
		} else {
			run.add(name, StatusFailed, t.url+" did not answer before timeout")
		}
	}
}

// loadAPIKeys reads each application's generated key from its config
// file. Without keys nothing else can talk to the applications, so a
// missing key aborts the run.
func (o *Orchestrator) loadAPIKeys(ctx context.Context, run *Run) error {
	arrs := []struct {
		name string
		cfg  config.ArrConfig
		into func(key string)
	}{
		{"Sonarr", o.cfg.Sonarr, func(k string) { o.sonarr = apps.NewArr("Sonarr", o.cfg.Sonarr, k, o.client) }},
		{"Radarr", o.cfg.Radarr, func(k string) { o.radarr = apps.NewArr("Radarr", o.cfg.Radarr, k, o.client) }},
		{"Prowlarr", o.cfg.Prowlarr, func(k string) { o.prowlarr = apps.NewProwlarr(o.cfg, k, o.client) }},
	}
	for _, a := range arrs {
		name := "read " + a.name + " API key"
		key, err := apps.APIKeyFromXML(a.cfg.ConfigPath)
		if err != nil {
			return run.abort(name, fmt.Errorf("read API key from %s: %w", a.cfg.ConfigPath, err))
		}
		a.into(key)
		run.add(name, StatusOK, "key loaded from "+a.cfg.ConfigPath)
	}
	return nil
}

// qbtWaitTimeout is the dedicated wait for the qBittorrent API, which
// sits behind the VPN gateway and comes up on its own schedule.
func (o *Orchestrator) qbtWaitTimeout() time.Duration {
	if o.cfg.QBittorrent.WaitTimeout > 0 {
		return o.cfg.QBittorrent.WaitTimeout
	}
	return o.cfg.WaitTimeout
}

func (o *Orchestrator) eachArr() []*apps.Arr {
	return []*apps.Arr{o.sonarr, o.radarr, o.prowlarr.Arr()}
}

func (o *Orchestrator) pinUpdates(ctx context.Context, run *Run) {
	for _, a := range o.eachArr() {
		rec, err := a.SetUpdateMechanismDocker(ctx)
		run.record("pin "+a.Name+" updates to docker", rec, err)
	}
}

// prepareQBittorrent opens a Web UI session (falling back to the
// temporary password from the container logs), optionally pins known
// credentials, and points the download paths at the shared volumes.
func (o *Orchestrator) prepareQBittorrent(ctx context.Context, run *Run) {
	const name = "prepare qBittorrent"
	if o.cfg.QBittorrent.URL == "" {
		run.skip(name, "no qBittorrent URL configured")
		return
	}

	client, err := qbt.New(o.cfg.QBittorrent.URL, 30*time.Second)
	if err != nil {
		run.record(name, remote.ChangeRecord{}, err)
		return
	}

	var logs string
	if o.runtime != nil && o.cfg.QBittorrent.Container != "" {
		if out, err := o.runtime.Logs(ctx, o.cfg.QBittorrent.Container); err == nil {
			logs = out
		} else {
			logging.Warn(subsystem, "Could not read qBittorrent logs: %v", err)
		}
	}

	auth := o.cfg.Auth
	user, pass, err := client.Authenticate(ctx, auth.Username, auth.Password, logs)
	if err != nil {
		run.record(name, remote.ChangeRecord{}, err)
		return
	}
	o.qbtUser, o.qbtPass = user, pass

	if o.cfg.QBittorrent.SetKnownCreds {
		if err := client.SetCredentials(ctx, auth.Username, auth.Password); err != nil {
			run.record(name, remote.ChangeRecord{}, fmt.Errorf("set credentials: %w", err))
			return
		}
		o.qbtUser, o.qbtPass = auth.Username, auth.Password
	}
	if err := client.EnsurePaths(ctx, o.cfg.Paths.Completed, o.cfg.Paths.Incomplete); err != nil {
		run.record(name, remote.ChangeRecord{}, fmt.Errorf("set download paths: %w", err))
		return
	}
	run.add(name, StatusChanged, fmt.Sprintf("session opened as %q, paths applied", o.qbtUser))
}

// registerTorrentClients adds qBittorrent as a download client in both
// PVR applications, categorized per application. The entries carry the
// pair a session was actually opened with; the configured credentials
// are only a fallback for when the prepare step never ran.
func (o *Orchestrator) registerTorrentClients(ctx context.Context, run *Run) {
	qb := o.cfg.QBittorrent
	if qb.Host == "" {
		run.skip("register qBittorrent clients", "no qBittorrent host configured")
		return
	}
	user, pass := o.qbtUser, o.qbtPass
	if user == "" {
		user, pass = o.cfg.Auth.Username, o.cfg.Auth.Password
	}
	for _, t := range []struct {
		app      *apps.Arr
		category string
	}{
		{o.sonarr, qb.SonarrCategory},
		{o.radarr, qb.RadarrCategory},
	} {
		rec, err := t.app.EnsureQBittorrentClient(ctx, apps.QBittorrentClientSpec{
			Name:     "qbittorrent",
			Host:     qb.Host,
			Port:     qb.Port,
			Username: user,
			Password: pass,
			Category: t.category,
		})
		run.record("register qBittorrent in "+t.app.Name, rec, err)
	}
}

func (o *Orchestrator) enforceAuth(ctx context.Context, run *Run) {
	for _, a := range o.eachArr() {
		rec, err := a.SetAuth(ctx, o.cfg.Auth)
		run.record("enforce auth on "+a.Name, rec, err)
	}
}

// seedAggregator registers the PVR applications and the configured
// indexers in the aggregator. An unusable indexer catalog aborts the
// run; a single indexer that cannot be resolved is advisory.
func (o *Orchestrator) seedAggregator(ctx context.Context, run *Run) error {
	var tagID int64
	if o.cfg.Proxy.Create && o.cfg.Proxy.TagLabel != "" {
		id, err := o.prowlarr.EnsureTag(ctx, o.cfg.Proxy.TagLabel)
		if err != nil {
			run.record("ensure proxy tag", remote.ChangeRecord{}, err)
		} else {
			tagID = id
			run.add("ensure proxy tag", StatusOK, fmt.Sprintf("tag %q (id=%d)", o.cfg.Proxy.TagLabel, tagID))
		}
	}

	for _, a := range []*apps.Arr{o.sonarr, o.radarr} {
		rec, err := o.prowlarr.EnsureApplication(ctx, a)
		run.record("register "+a.Name+" in Prowlarr", rec, err)
	}

	proxyID, rec, err := o.prowlarr.EnsureProxy(ctx, tagID)
	run.record("ensure indexer proxy", rec, err)

	if len(o.cfg.Indexers) > 0 {
		defs, err := o.prowlarr.IndexerDefinitions(ctx)
		if err != nil {
			return run.abort("fetch indexer catalog", err)
		}
		for _, name := range o.cfg.Indexers {
			rec, err := o.prowlarr.EnsureIndexer(ctx, defs, name, tagID, proxyID)
			run.record("ensure indexer "+name, rec, err)
		}
	}

	if err := o.prowlarr.SetIndexerPriorities(ctx, 10, 30); err != nil {
		run.record("set indexer priorities", remote.ChangeRecord{}, err)
	} else {
		run.add("set indexer priorities", StatusOK, "usenet=10, torrent=30")
	}
	return nil
}

func (o *Orchestrator) ensureRootFolders(ctx context.Context, run *Run) {
	for _, t := range []struct {
		app  *apps.Arr
		path string
	}{
		{o.radarr, o.cfg.Paths.Movies},
		{o.sonarr, o.cfg.Paths.Shows},
	} {
		if t.path == "" {
			run.skip("ensure root folder in "+t.app.Name, "no path configured")
			continue
		}
		rec, err := t.app.EnsureRootFolder(ctx, t.path)
		run.record("ensure root folder in "+t.app.Name, rec, err)
	}
}

// convergeSABnzbd patches sabnzbd.ini, restarts the container when the
// file changed, then registers SABnzbd as a download client with the
// key the restarted instance generated.
func (o *Orchestrator) convergeSABnzbd(ctx context.Context, run *Run) {
	if o.cfg.SABnzbd.ConfigPath == "" {
		run.skip("converge SABnzbd", "no config path configured")
		return
	}

	if !probe.NewFileProbe(o.cfg.SABnzbd.ConfigPath).WaitUntilReady(ctx, o.cfg.WaitTimeout) {
		run.add("converge SABnzbd", StatusFailed, "sabnzbd.ini never appeared at "+o.cfg.SABnzbd.ConfigPath)
		return
	}

	rec, err := o.sabnzbd.ConvergeINI()
	run.record("converge sabnzbd.ini", rec, err)
	if err != nil {
		return
	}

	if rec.Changed {
		o.restartAndWait(ctx, run, o.cfg.SABnzbd.Container, o.cfg.SABnzbd.HTTPPort)
	}

	key, err := o.sabnzbd.APIKey()
	if err != nil {
		run.record("read SABnzbd API key", remote.ChangeRecord{}, err)
		return
	}

	for _, t := range []struct {
		app      *apps.Arr
		category string
	}{
		{o.sonarr, "tv"},
		{o.radarr, "movies"},
	} {
		spec := apps.SABnzbdClientSpec{
			Name:     "sabnzbd",
			Host:     o.cfg.SABnzbd.Host,
			Port:     o.cfg.SABnzbd.Port,
			APIKey:   key,
			Category: t.category,
		}
		rec, err := t.app.EnsureSABnzbdClient(ctx, spec)
		if err != nil {
			// The category may not have existed when the client was first
			// rejected; the ini pass above added it, so one retry is fair.
			logging.Warn(subsystem, "Retrying SABnzbd client in %s: %v", t.app.Name, err)
			rec, err = t.app.EnsureSABnzbdClient(ctx, spec)
		}
		run.record("register SABnzbd in "+t.app.Name, rec, err)
	}
}

// tuneProtocols aligns protocol preferences and client priorities with
// what the aggregator can serve.
func (o *Orchestrator) tuneProtocols(ctx context.Context, run *Run) {
	hasUsenet := o.prowlarr.HasUsenetIndexer(ctx)
	logging.Info(subsystem, "Usenet indexer available: %v", hasUsenet)

	for _, a := range []*apps.Arr{o.sonarr, o.radarr} {
		if err := a.TuneProtocols(ctx, hasUsenet, o.cfg.Usenet.TorrentDelay); err != nil {
			run.record("tune "+a.Name+" protocols", remote.ChangeRecord{}, err)
		} else {
			run.add("tune "+a.Name+" protocols", StatusOK, fmt.Sprintf("preferUsenet=%v", hasUsenet))
		}
		if err := a.SetClientPriorities(ctx, hasUsenet); err != nil {
			run.record("order "+a.Name+" download clients", remote.ChangeRecord{}, err)
		} else {
			run.add("order "+a.Name+" download clients", StatusOK, "priorities ordered")
		}
	}
}

// restartApplications restarts the PVR applications and the aggregator
// so every converged setting is live, then waits for them to answer
// again.
func (o *Orchestrator) restartApplications(ctx context.Context, run *Run) {
	if o.runtime == nil {
		run.skip("restart applications", "no container runtime")
		return
	}
	for _, t := range []struct {
		name string
		cfg  config.ArrConfig
	}{
		{"Sonarr", o.cfg.Sonarr},
		{"Radarr", o.cfg.Radarr},
		{"Prowlarr", o.cfg.Prowlarr},
	} {
		if t.cfg.Container == "" {
			run.skip("restart "+t.name, "no container configured")
			continue
		}
		if err := o.runtime.Restart(ctx, t.cfg.Container); err != nil {
			run.add("restart "+t.name, StatusFailed, err.Error())
			continue
		}
		if probe.NewHTTPProbe(t.name, t.cfg.URL).WaitUntilReady(ctx, o.cfg.WaitTimeout) {
			run.add("restart "+t.name, StatusChanged, "restarted and answering again")
		} else {
			run.add("restart "+t.name, StatusFailed, "restarted but not answering")
		}
	}
}

func (o *Orchestrator) restartAndWait(ctx context.Context, run *Run, service string, port int) {
	name := "restart " + service
	if o.runtime == nil || service == "" {
		run.skip(name, "no container runtime")
		return
	}
	if err := o.runtime.Restart(ctx, service); err != nil {
		run.add(name, StatusFailed, err.Error())
		return
	}
	if probe.NewContainerProbe(o.runtime, service, port).WaitUntilReady(ctx, o.cfg.WaitTimeout) {
		run.add(name, StatusChanged, "restarted and healthy")
	} else {
		run.add(name, StatusFailed, "restarted but not healthy before timeout")
	}
}
