// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common_test

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/viper"

	"github.com/penny-vault/drip-api/common"
)

// respServer is an in-process redis stand-in that understands SET, GET and GETEX
type respServer struct {
	listener net.Listener

	lock   sync.Mutex
	values map[string][]byte
	getex  int
}

func newRespServer() *respServer {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).To(BeNil())

	srv := &respServer{
		listener: listener,
		values:   make(map[string][]byte),
	}
	go srv.serve()
	return srv
}

func (srv *respServer) URL() string {
	return fmt.Sprintf("redis://%s/0", srv.listener.Addr().String())
}

func (srv *respServer) Close() {
	srv.listener.Close()
}

func (srv *respServer) GetExCalls() int {
	srv.lock.Lock()
	defer srv.lock.Unlock()
	return srv.getex
}

func (srv *respServer) Value(key string) []byte {
	srv.lock.Lock()
	defer srv.lock.Unlock()
	return srv.values[key]
}

func (srv *respServer) serve() {
	for {
		conn, err := srv.listener.Accept()
		if err != nil {
			return
		}
		go srv.handle(conn)
	}
}

func (srv *respServer) handle(conn net.Conn) {
	defer conn.Close()
	rd := bufio.NewReader(conn)
	for {
		args, err := readCommand(rd)
		if err != nil {
			return
		}
		if _, err := conn.Write(srv.reply(args)); err != nil {
			return
		}
	}
}

func (srv *respServer) reply(args [][]byte) []byte {
	if len(args) == 0 {
		return []byte("-ERR empty command\r\n")
	}

	srv.lock.Lock()
	defer srv.lock.Unlock()

	switch strings.ToUpper(string(args[0])) {
	case "SET":
		srv.values[string(args[1])] = args[2]
		return []byte("+OK\r\n")
	case "GETEX":
		srv.getex++
		fallthrough
	case "GET":
		val, ok := srv.values[string(args[1])]
		if !ok {
			return []byte("$-1\r\n")
		}
		return append([]byte(fmt.Sprintf("$%d\r\n", len(val))), append(val, '\r', '\n')...)
	default:
		return []byte("+OK\r\n")
	}
}

func readCommand(rd *bufio.Reader) ([][]byte, error) {
	line, err := readLine(rd)
	if err != nil {
		return nil, err
	}
	if len(line) == 0 || line[0] != '*' {
		return nil, fmt.Errorf("unexpected command header %q", line)
	}

	count, err := strconv.Atoi(line[1:])
	if err != nil {
		return nil, err
	}

	args := make([][]byte, 0, count)
	for ii := 0; ii < count; ii++ {
		header, err := readLine(rd)
		if err != nil {
			return nil, err
		}
		size, err := strconv.Atoi(strings.TrimPrefix(header, "$"))
		if err != nil {
			return nil, err
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(rd, buf); err != nil {
			return nil, err
		}
		args = append(args, buf[:size])
	}
	return args, nil
}

func readLine(rd *bufio.Reader) (string, error) {
	line, err := rd.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var _ = Describe("Cache backed by redis", func() {
	var (
		ctx    context.Context
		server *respServer
	)

	BeforeEach(func() {
		ctx = context.Background()
		server = newRespServer()

		viper.Set("cache.local_size", 4)
		viper.Set("cache.ttl", 60)
		viper.Set("cache.redis_url", server.URL())
		Expect(common.SetupCache()).To(Succeed())
	})

	AfterEach(func() {
		viper.Set("cache.redis_url", "")
		viper.Set("cache.ttl", 0)
		Expect(common.SetupCache()).To(Succeed())
		server.Close()
	})

	It("enables redis from the connection string alone", func() {
		val := bytes.Repeat([]byte("2020-01-02,10,10,0\n"), 50)
		Expect(common.CacheSet(ctx, "AAA", val)).To(Succeed())

		stored := server.Value("AAA")
		Expect(stored).ToNot(BeEmpty())
		Expect(len(stored)).To(BeNumerically("<", len(val)))
	})

	It("reads values back from redis after the local cache is purged", func() {
		val := bytes.Repeat([]byte("2020-06-15,12,12,1\n"), 50)
		Expect(common.CacheSet(ctx, "AAA", val)).To(Succeed())
		common.CachePurge()

		res, err := common.CacheGet(ctx, "AAA")
		Expect(err).To(BeNil())
		Expect(res).To(Equal(val))
		Expect(server.GetExCalls()).To(Equal(1))
	})

	It("promotes redis hits into the local cache", func() {
		Expect(common.CacheSet(ctx, "AAA", []byte("value"))).To(Succeed())
		common.CachePurge()

		for ii := 0; ii < 3; ii++ {
			res, err := common.CacheGet(ctx, "AAA")
			Expect(err).To(BeNil())
			Expect(res).To(Equal([]byte("value")))
		}
		Expect(server.GetExCalls()).To(Equal(1))
	})

	It("reports a miss when neither cache has the key", func() {
		_, err := common.CacheGet(ctx, "MISSING")
		Expect(err).To(MatchError(common.ErrCacheMiss))
		Expect(server.GetExCalls()).To(Equal(1))
	})

	It("rejects a malformed connection string", func() {
		viper.Set("cache.redis_url", "not a redis url")
		Expect(common.SetupCache()).ToNot(Succeed())
	})
})
