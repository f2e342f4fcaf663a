package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	sf "github.com/reoring/schemaforge"
	"github.com/reoring/schemaforge/compiler"
	"github.com/reoring/schemaforge/descriptor"
	"github.com/reoring/schemaforge/grammar"
)

func (s *Server) health(c *gin.Context) {
	render(c, http.StatusOK, gin.H{"status": "OK"})
}

// define asks the model for a schema. The reply is validated against the
// grammar, must compile, and is returned with only the attributes the model
// set.
func (s *Server) define(c *gin.Context) {
	s.run(c, func(*sf.Object) (*descriptor.Descriptor, error) {
		return compiler.ModelTypeTarget(), nil
	})
}

// parse compiles the posted schema and asks the model for an instance.
func (s *Server) parse(c *gin.Context) {
	s.run(c, func(o *sf.Object) (*descriptor.Descriptor, error) {
		raw, _ := o.Get("schema")
		return compiler.Compile(raw.(*grammar.ModelType))
	})
}

func (s *Server) run(c *gin.Context, target func(*sf.Object) (*descriptor.Descriptor, error)) {
	body := c.MustGet(envelopeKey).(*sf.Object)
	t, err := target(body)
	if err != nil {
		s.fail(c, err)
		return
	}
	req, err := toRequest(body, c.GetString(credentialKey))
	if err != nil {
		s.fail(c, err)
		return
	}
	res, err := s.client.Extract(c.Request.Context(), t, req)
	if err != nil {
		s.fail(c, err)
		return
	}
	render(c, http.StatusOK, gin.H{"data": res.Value, "usage": res.Usage})
}
