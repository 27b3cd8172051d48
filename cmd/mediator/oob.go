// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	mediatorcrypto "github.com/sage-x-project/didcomm-mediator/crypto"
	"github.com/sage-x-project/didcomm-mediator/crypto/formats"
)

const typeOutOfBandInvitation = "https://didcomm.org/out-of-band/1.0/invitation"

// didDocument is the minimal DID document the mediator advertises for
// itself, carrying its signing verkey as a JWK verification method so a
// prospective client can pack a MediateRequest toward it without a prior
// out-of-band exchange.
type didDocument struct {
	Context            []string             `json:"@context"`
	ID                 string               `json:"id"`
	VerificationMethod []verificationMethod `json:"verificationMethod"`
	Authentication     []string             `json:"authentication"`
	Service            []didService         `json:"service"`
}

type verificationMethod struct {
	ID           string      `json:"id"`
	Type         string      `json:"type"`
	Controller   string      `json:"controller"`
	PublicKeyJwk formats.JWK `json:"publicKeyJwk"`
}

type didService struct {
	ID              string   `json:"id"`
	Type            string   `json:"type"`
	ServiceEndpoint string   `json:"serviceEndpoint"`
	RoutingKeys     []string `json:"routingKeys,omitempty"`
}

// outOfBandInvitation is the JSON body served at /register.json, and the
// payload base64url-encoded into the `oob` query parameter at /invite.
type outOfBandInvitation struct {
	ID       string       `json:"@id"`
	Type     string       `json:"@type"`
	Label    string       `json:"label"`
	Services []didService `json:"services"`
}

// buildDIDDocument constructs the mediator's self-describing DID document
// from its own signing identity, exercising the JWK exporter (crypto/formats)
// that the wallet's persisted-key path otherwise leaves idle.
func buildDIDDocument(signingKey mediatorcrypto.KeyPair, verkey, endpoint string) (didDocument, error) {
	exporter := formats.NewJWKExporter()
	jwkBytes, err := exporter.ExportPublic(signingKey, mediatorcrypto.KeyFormatJWK)
	if err != nil {
		return didDocument{}, fmt.Errorf("export signing key as jwk: %w", err)
	}

	var jwk formats.JWK
	if err := json.Unmarshal(jwkBytes, &jwk); err != nil {
		return didDocument{}, fmt.Errorf("decode exported jwk: %w", err)
	}

	thumbprint, err := jwk.ComputeKeyIDRFC9421()
	if err != nil {
		return didDocument{}, fmt.Errorf("compute jwk thumbprint: %w", err)
	}

	did := "did:key:z" + verkey
	keyID := did + "#" + thumbprint

	return didDocument{
		Context: []string{"https://www.w3.org/ns/did/v1"},
		ID:      did,
		VerificationMethod: []verificationMethod{{
			ID:           keyID,
			Type:         "Ed25519VerificationKey2020",
			Controller:   did,
			PublicKeyJwk: jwk,
		}},
		Authentication: []string{keyID},
		Service: []didService{{
			ID:              did + "#didcomm",
			Type:            "did-communication",
			ServiceEndpoint: endpoint,
			RoutingKeys:     []string{verkey},
		}},
	}, nil
}

// buildInvitation wraps the mediator's DID document into a DIDComm
// out-of-band invitation (spec.md §6's /register.json response).
func buildInvitation(did didDocument, endpoint string) outOfBandInvitation {
	return outOfBandInvitation{
		ID:    uuid.NewString(),
		Type:  typeOutOfBandInvitation,
		Label: "didcomm-mediator",
		Services: []didService{{
			ID:              did.ID + "#didcomm",
			Type:            "did-communication",
			ServiceEndpoint: endpoint,
			RoutingKeys:     did.Service[0].RoutingKeys,
		}},
	}
}

// invitationURL base64url-encodes the invitation JSON and embeds it as
// the "oob" query parameter on the advertised endpoint, per spec.md §6's
// /invite response shape.
func invitationURL(inv outOfBandInvitation, endpoint string) (string, error) {
	body, err := json.Marshal(inv)
	if err != nil {
		return "", fmt.Errorf("marshal invitation: %w", err)
	}
	encoded := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(body)
	return fmt.Sprintf("%s?oob=%s", endpoint, encoded), nil
}
