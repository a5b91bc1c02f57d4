/*
 * ------------------------------------------------------------------
 * May, 2022, Reda Haddad
 *
 * Copyright (c) 2022 by cisco Systems, Inc.
 * All rights reserved.
 * ------------------------------------------------------------------
 */
package p4rt_client

import (
	"fmt"
	"sync"

	"github.com/golang/glog"
	grpc "google.golang.org/grpc"
)

type P4RTClientMap struct {
	client_mu  sync.Mutex // Protects the following:
	clientsMap map[string]*P4RTClient
	// end client_mu Protection
}

func (p *P4RTClientMap) ClientAdd(params *P4RTClientParameters) (*P4RTClient, error) {
	if len(params.Name) == 0 {
		return nil, fmt.Errorf("Bad Client Name")
	}

	p4rtClient := NewP4RTClient(params)

	p.client_mu.Lock()
	defer p.client_mu.Unlock()

	if _, found := p.clientsMap[params.Name]; found {
		return nil, fmt.Errorf("Client '%s' Already exists", params.Name)
	}

	p.clientsMap[params.Name] = p4rtClient

	return p4rtClient, nil
}

func (p *P4RTClientMap) ClientGet(clientName *string) (*P4RTClient, error) {
	p.client_mu.Lock()
	defer p.client_mu.Unlock()

	if p4rtClient, found := p.clientsMap[*clientName]; found {
		return p4rtClient, nil
	}

	return nil, fmt.Errorf("Client '%s' Does Not exist", *clientName)
}

func (p *P4RTClientMap) Len() int {
	p.client_mu.Lock()
	defer p.client_mu.Unlock()

	return len(p.clientsMap)
}

// ClientConnect adds a client, connects it and opens its streams. The client
// is registered before connecting, so ShutdownAll cleans up after a partial
// failure too.
func (p *P4RTClientMap) ClientConnect(params *P4RTClientParameters, opts ...grpc.DialOption) (*P4RTClient, error) {
	newClient, err := p.ClientAdd(params)
	if err != nil {
		glog.Errorf("Could not add Client '%s': %s", params.Name, err)
		return nil, err
	}

	// Connect
	err = newClient.ServerConnect(opts...)
	if err != nil {
		glog.Errorf("Could not Connect Client '%s': %s", params.Name, err)
		return newClient, err
	}

	// Establish sessions
	for sIndex := range params.Streams {
		err = newClient.StreamChannelCreate(&params.Streams[sIndex])
		if err != nil {
			glog.Errorf("Could not Stream Create at Index(%d) %s", sIndex, err)
			return newClient, err
		}
	}

	return newClient, nil
}

// ShutdownAll disconnects and forgets every client.
func (p *P4RTClientMap) ShutdownAll() {
	p.client_mu.Lock()
	clients := p.clientsMap
	p.clientsMap = make(map[string]*P4RTClient)
	p.client_mu.Unlock()

	for name, client := range clients {
		if glog.V(1) {
			glog.Infof("Shutting down Client '%s'", name)
		}
		client.ServerDisconnect()
	}
}

func NewP4RTClientMap() *P4RTClientMap {
	clientMap := &P4RTClientMap{}
	clientMap.clientsMap = make(map[string]*P4RTClient)

	return clientMap
}
