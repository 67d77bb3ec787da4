// Package config implements the Configuration Registry: the process-wide
// state fed by JSON add/remove events that Enrichment reads to decorate
// syslog records with hostname, tenant, application, SLA, and location
// data. Grounded on StructuredSyslogConfig in
// original_source/contrail-collector/structured_syslog_config.cc.
package config

import "sync"

// HostnameRecord describes one managed device/host, including the LAN
// segments it advertises for location resolution.
type HostnameRecord struct {
	mu        sync.RWMutex
	name      string
	hostAddr  string
	tenant    string
	location  string
	device    string
	tags      string
	linkMap   map[string]string // overlay -> "underlay@link_type@traffic_destination@metadata"
}

// HostnameSnapshot is an immutable point-in-time copy of a HostnameRecord,
// safe to hold for the duration of one enrichment call even if the
// backing record is refreshed concurrently.
type HostnameSnapshot struct {
	Name     string
	HostAddr string
	Tenant   string
	Location string
	Device   string
	Tags     string
	LinkMap  map[string]string
}

func newHostnameRecord(name, hostAddr, tenant, location, device, tags string, linkMap map[string]string) *HostnameRecord {
	r := &HostnameRecord{}
	r.refresh(name, hostAddr, tenant, location, device, tags, linkMap)
	return r
}

func (r *HostnameRecord) refresh(name, hostAddr, tenant, location, device, tags string, linkMap map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.name, r.hostAddr, r.tenant = name, hostAddr, tenant
	r.location, r.device, r.tags = location, device, tags
	r.linkMap = linkMap
}

// Snapshot returns a copy of the record's current field values.
func (r *HostnameRecord) Snapshot() HostnameSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lm := make(map[string]string, len(r.linkMap))
	for k, v := range r.linkMap {
		lm[k] = v
	}
	return HostnameSnapshot{
		Name: r.name, HostAddr: r.hostAddr, Tenant: r.tenant,
		Location: r.location, Device: r.device, Tags: r.tags, LinkMap: lm,
	}
}

// Location returns the record's current location under its own lock,
// used by the registry's purge-on-refresh bookkeeping without requiring
// a full snapshot copy.
func (r *HostnameRecord) Location() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.location
}

// TenantRecord describes one tenant's addressing and DSCP remap tables.
type TenantRecord struct {
	mu          sync.RWMutex
	name        string
	tenantAddr  string
	tenant      string
	tags        string
	dscpMapIPv4 map[string]string
	dscpMapIPv6 map[string]string
}

// TenantSnapshot is an immutable copy of a TenantRecord.
type TenantSnapshot struct {
	Name        string
	TenantAddr  string
	Tenant      string
	Tags        string
	DscpMapIPv4 map[string]string
	DscpMapIPv6 map[string]string
}

func newTenantRecord(name, tenantAddr, tenant, tags string, ipv4, ipv6 map[string]string) *TenantRecord {
	r := &TenantRecord{}
	r.refresh(name, tenantAddr, tenant, tags, ipv4, ipv6)
	return r
}

func (r *TenantRecord) refresh(name, tenantAddr, tenant, tags string, ipv4, ipv6 map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.name, r.tenantAddr, r.tenant, r.tags = name, tenantAddr, tenant, tags
	r.dscpMapIPv4, r.dscpMapIPv6 = ipv4, ipv6
}

// Snapshot returns a copy of the record's current field values.
func (r *TenantRecord) Snapshot() TenantSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return TenantSnapshot{
		Name: r.name, TenantAddr: r.tenantAddr, Tenant: r.tenant, Tags: r.tags,
		DscpMapIPv4: copyStrMap(r.dscpMapIPv4), DscpMapIPv6: copyStrMap(r.dscpMapIPv6),
	}
}

// ApplicationRecord describes one classified application signature,
// either globally addressable or scoped to a tenant (see AddApplication).
type ApplicationRecord struct {
	mu          sync.RWMutex
	name        string
	category    string
	subcategory string
	groups      string
	risk        string
	serviceTags string
}

// ApplicationSnapshot is an immutable copy of an ApplicationRecord.
type ApplicationSnapshot struct {
	Name, Category, Subcategory, Groups, Risk, ServiceTags string
}

func newApplicationRecord(name, category, subcategory, groups, risk, serviceTags string) *ApplicationRecord {
	r := &ApplicationRecord{}
	r.refresh(name, category, subcategory, groups, risk, serviceTags)
	return r
}

func (r *ApplicationRecord) refresh(name, category, subcategory, groups, risk, serviceTags string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.name, r.category, r.subcategory = name, category, subcategory
	r.groups, r.risk, r.serviceTags = groups, risk, serviceTags
}

// Snapshot returns a copy of the record's current field values.
func (r *ApplicationRecord) Snapshot() ApplicationSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return ApplicationSnapshot{r.name, r.category, r.subcategory, r.groups, r.risk, r.serviceTags}
}

// SlaProfileRecord describes one tenant-scoped SLA profile.
type SlaProfileRecord struct {
	mu     sync.RWMutex
	name   string
	params string
}

func newSlaProfileRecord(name, params string) *SlaProfileRecord {
	r := &SlaProfileRecord{}
	r.refresh(name, params)
	return r
}

func (r *SlaProfileRecord) refresh(name, params string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.name, r.params = name, params
}

// Snapshot returns the record's current (name, params).
func (r *SlaProfileRecord) Snapshot() (name, params string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.name, r.params
}

func copyStrMap(m map[string]string) map[string]string {
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
