// Package iam holds the identity core of the directory service: domain
// classification, tenant resolution, scoped sessions, invitations, and the
// cross-domain handoff protocol.
//
// # Overview
//
//   - iam/realm      — host → DomainClass classification + request middleware
//   - iam/tenant     — tenant + domain records, cached host resolution
//   - iam/user       — user entity (nullable password hash for OAuth-only accounts)
//   - iam/session    — scoped session store and per-domain cookie policy
//   - iam/transition — cross-domain transition marker (prepare / validate / cleanup)
//   - iam/handoff    — single-use handoff tokens redeemed on tenant domains
//   - iam/invitation — invitation lifecycle and exactly-once acceptance
//   - iam/auth       — passwords, JWT access tokens, auth middleware
//
// # Architecture
//
// Each sub-domain follows the same layering:
//
//	HTTP Handler (<mod>api) → Service (<mod>srv) → Repository Interface (port.go) → Infrastructure (<mod>infra)
//
// and exposes its own error registry ("INVITATION", "HANDOFF", ...).
//
// # The handoff protocol
//
// An admin authenticated on a central domain accepts an invitation on behalf
// of nobody — the invitee does, on the central domain, where the acceptance
// form lives. Acceptance atomically consumes the invitation and creates the
// user, then issues a single-use handoff token and redirects the browser to
// the tenant domain:
//
//	POST /invitation/:token          (central)  → 303 https://acme.example/impersonate/<handoff>
//	GET  /impersonate/:handoff       (tenant)   → redeems exactly once, sets tenant cookie
//
// The two domains never share a session: session state is partitioned by
// Scope, cookie names are structurally distinct per domain class, and the
// only cross-domain credential is the short-lived handoff token.
package iam
