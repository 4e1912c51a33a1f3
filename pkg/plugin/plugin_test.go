package plugin

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPlugin struct {
	name    string
	calls   []PluginData
	failErr error
	initErr error
}

func (p *recordingPlugin) Name() string                 { return p.name }
func (p *recordingPlugin) Init(map[string]string) error { return p.initErr }
func (p *recordingPlugin) Execute(data any) error {
	p.calls = append(p.calls, data.(PluginData))
	return p.failErr
}

func TestPluginManager_RegisterAndBind(t *testing.T) {
	pm := NewPluginManager()
	p := &recordingPlugin{name: "rec"}

	require.NoError(t, pm.Register(p))
	assert.Error(t, pm.Register(p), "重复注册应失败")
	assert.Error(t, pm.Register(nil))

	assert.Error(t, pm.Bind(PluginBinding{PluginName: "missing", Event: EventWorkflowFailed}))
	assert.Error(t, pm.Bind(PluginBinding{PluginName: "rec"}))
	require.NoError(t, pm.Bind(PluginBinding{PluginName: "rec", Event: EventWorkflowFailed}))

	got, ok := pm.GetPlugin("rec")
	assert.True(t, ok)
	assert.Equal(t, p, got)
	assert.Equal(t, []string{"rec"}, pm.ListPlugins())
}

func TestPluginManager_Trigger(t *testing.T) {
	pm := NewPluginManager()
	p := &recordingPlugin{name: "rec"}
	require.NoError(t, pm.Register(p))
	require.NoError(t, pm.Bind(PluginBinding{
		PluginName: "rec",
		Event:      EventNotificationSent,
		Condition: func(data any) bool {
			return data.(PluginData).WorkflowID != "skip"
		},
	}))

	ctx := context.Background()
	require.NoError(t, pm.Trigger(ctx, EventNotificationSent, PluginData{WorkflowID: "wf-1"}))
	require.NoError(t, pm.Trigger(ctx, EventNotificationSent, PluginData{WorkflowID: "skip"}))
	require.NoError(t, pm.Trigger(ctx, EventWorkflowCompleted, PluginData{WorkflowID: "wf-1"}))

	require.Len(t, p.calls, 1)
	assert.Equal(t, "wf-1", p.calls[0].WorkflowID)
	assert.Equal(t, EventNotificationSent, p.calls[0].Event)
}

func TestPluginManager_TriggerError(t *testing.T) {
	pm := NewPluginManager()
	boom := errors.New("boom")
	require.NoError(t, pm.Register(&recordingPlugin{name: "bad", failErr: boom}))
	require.NoError(t, pm.Bind(PluginBinding{PluginName: "bad", Event: EventWorkflowFailed}))

	err := pm.Trigger(context.Background(), EventWorkflowFailed, PluginData{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestPluginManager_RegisterWithInitFailure(t *testing.T) {
	pm := NewPluginManager()
	err := pm.RegisterWithInit(&recordingPlugin{name: "x", initErr: errors.New("bad config")}, nil)
	require.Error(t, err)
	_, ok := pm.GetPlugin("x")
	assert.False(t, ok)
}

func TestPluginManager_Unregister(t *testing.T) {
	pm := NewPluginManager()
	p := &recordingPlugin{name: "rec"}
	require.NoError(t, pm.Register(p))
	require.NoError(t, pm.Bind(PluginBinding{PluginName: "rec", Event: EventWorkflowFailed}))
	require.NoError(t, pm.Unregister("rec"))
	assert.Error(t, pm.Unregister("rec"))

	require.NoError(t, pm.Trigger(context.Background(), EventWorkflowFailed, PluginData{}))
	assert.Empty(t, p.calls)
}

func TestEmailPlugin_Init(t *testing.T) {
	e := NewEmailPlugin()
	assert.Equal(t, "email", e.Name())

	assert.Error(t, e.Init(map[string]string{}))
	assert.Error(t, e.Init(map[string]string{"smtp_host": "localhost"}))
	assert.Error(t, e.Init(map[string]string{"smtp_host": "localhost", "from": "a@x.com", "smtp_port": "abc"}))
	require.NoError(t, e.Init(map[string]string{"smtp_host": "localhost", "from": "a@x.com"}))

	assert.Error(t, NewEmailPlugin().Execute(PluginData{}), "未初始化时应失败")
}

func TestEmailPlugin_Execute(t *testing.T) {
	e := NewEmailPlugin().(*EmailPlugin)
	require.NoError(t, e.Init(map[string]string{
		"smtp_host": "mail.local",
		"smtp_port": "2525",
		"from":      "crm@x.com",
		"to":        "ops@x.com, sales@x.com",
	}))

	var gotAddr string
	var gotTo []string
	var gotMsg string
	e.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	// 收件人为联系人名称时使用默认收件人
	require.NoError(t, e.Execute(PluginData{
		Event:        EventNotificationSent,
		WorkflowName: "Lead Qualification",
		Message:      "Lead qualified",
		Recipients:   []string{"sales_team"},
	}))
	assert.Equal(t, "mail.local:2525", gotAddr)
	assert.Equal(t, []string{"ops@x.com", "sales@x.com"}, gotTo)
	assert.True(t, strings.Contains(gotMsg, "Subject: [CRM通知] Lead Qualification"))
	assert.True(t, strings.Contains(gotMsg, "Lead qualified"))

	// 邮箱收件人覆盖默认收件人
	require.NoError(t, e.Execute(PluginData{
		Event:      EventNotificationSent,
		Subject:    "Welcome",
		Recipients: []string{"customer@acme.com"},
	}))
	assert.Equal(t, []string{"customer@acme.com"}, gotTo)
	assert.True(t, strings.Contains(gotMsg, "Subject: Welcome"))

	assert.Error(t, e.Execute("not plugin data"))
}

func TestEmailPlugin_NoRecipients(t *testing.T) {
	e := NewEmailPlugin().(*EmailPlugin)
	require.NoError(t, e.Init(map[string]string{"smtp_host": "mail.local", "from": "crm@x.com"}))
	called := false
	e.send = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}
	require.NoError(t, e.Execute(PluginData{Event: EventWorkflowFailed}))
	assert.False(t, called)
}
