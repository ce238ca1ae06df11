package service

import "html/template"

var dashboardTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Poolview</title>
<style>
body { font-family: Arial, sans-serif; margin: 0; background: #f2f5f7; color: #223; }
header { display: flex; align-items: center; gap: 1rem; padding: 0.8rem 1.5rem; background: #1976d2; color: #fff; }
header h1 { font-size: 1.3rem; margin: 0; }
header .server { opacity: 0.8; font-size: 0.9rem; }
header .spacer { flex: 1; }
header .badge { background: rgba(255,255,255,0.2); border-radius: 4px; padding: 0.2rem 0.6rem; font-size: 0.8rem; }
header .badge.hidden { display: none; }
header .conn { font-weight: bold; }
header .conn.stale { color: #ffcdd2; }
main { padding: 1.5rem; display: flex; flex-wrap: wrap; gap: 1rem; align-items: flex-start; }
.card { background: #fff; border-radius: 6px; box-shadow: 0 2px 4px rgba(0,0,0,0.12); padding: 1rem; min-width: 20rem; }
.card.active { border: 2px solid #1976d2; }
.card h2 { margin: 0 0 0.5rem 0; font-size: 1.1rem; display: flex; align-items: center; gap: 0.5rem; }
.card h2 .temp { font-weight: normal; font-size: 0.9rem; color: #555; }
.card h2 .heat { color: #bbb; } .card h2 .heat.on { color: #ef6c00; }
.pwr { margin-left: auto; border: none; border-radius: 50%; width: 2.2rem; height: 2.2rem; cursor: pointer; background: #e0e0e0; }
.pwr.on { background: #2e7d32; color: #fff; }
.toggles label { display: flex; gap: 0.5rem; align-items: center; margin: 0.3rem 0; }
.slider-row { display: flex; gap: 0.5rem; align-items: center; margin-top: 0.8rem; }
.slider-row input[type=range] { flex: 1; }
.slider-row button { border: 1px solid #ccc; background: #fafafa; border-radius: 50%; width: 2rem; height: 2rem; cursor: pointer; }
.modes { margin-top: 0.6rem; display: flex; gap: 0.4rem; flex-wrap: wrap; }
.modes button { border: 1px solid #1976d2; background: #fff; color: #1976d2; border-radius: 4px; padding: 0.3rem 0.7rem; cursor: pointer; }
.modes button.active { background: #1976d2; color: #fff; }
table { border-collapse: collapse; width: 100%; }
th, td { padding: 0.4rem 0.6rem; border-bottom: 1px solid #eee; text-align: left; font-size: 0.9rem; }
.lights button { margin: 0.2rem; border: 1px solid #888; background: #fff; border-radius: 4px; padding: 0.3rem 0.7rem; cursor: pointer; }
.alerts { width: 100%; }
.alert { background: #fff3e0; border-left: 4px solid #ef6c00; padding: 0.5rem 0.8rem; margin-bottom: 0.4rem; border-radius: 4px; }
.alert.error { background: #ffebee; border-left-color: #c62828; }
.writeError { background: #ffebee; border-left: 4px solid #c62828; padding: 0.5rem 0.8rem; width: 100%; border-radius: 4px; }
</style>
</head>
<body>
<header>
  <h1>Poolview</h1>
  <span class="server" id="server"></span>
  <span class="spacer"></span>
  <span class="badge hidden" id="freeze">freeze</span>
  <span class="badge hidden" id="service">service</span>
  <span class="badge hidden" id="delay">delay</span>
  <span class="badge hidden" id="lightsOn">lights</span>
  <span class="conn" id="conn" title=""></span>
  <span id="airTemp"></span>
</header>
<main id="main"></main>
<script>
'use strict';

let view = null;

async function post(path, body) {
  await fetch(path, {method: 'POST', headers: {'Content-Type': 'application/json'}, body: JSON.stringify(body)});
  await refresh();
}

function el(tag, cls, text) {
  const node = document.createElement(tag);
  if (cls) node.className = cls;
  if (text !== undefined) node.textContent = text;
  return node;
}

function renderHeader(h) {
  document.getElementById('server').textContent = h.serverName || '';
  document.getElementById('airTemp').textContent = h.airTemp + '° ' + (h.tempScale || '');
  document.getElementById('freeze').classList.toggle('hidden', !h.freezeMode);
  document.getElementById('service').classList.toggle('hidden', !h.serviceMode);
  document.getElementById('delay').classList.toggle('hidden', !h.cleanerDelay);
  document.getElementById('lightsOn').classList.toggle('hidden', !h.lightsOn);
  const conn = document.getElementById('conn');
  conn.textContent = h.connection.connected ? '● connected' : '○ stale';
  conn.title = h.connection.tooltip;
  conn.classList.toggle('stale', !h.connection.connected);
}

function renderToggles(parent, toggles) {
  const wrap = el('div', 'toggles');
  (toggles || []).forEach(t => {
    const label = el('label');
    const box = el('input');
    box.type = 'checkbox';
    box.checked = t.on;
    box.addEventListener('change', () => post('/api/circuit', {circuitId: t.circuitId, on: box.checked}));
    label.appendChild(box);
    label.appendChild(document.createTextNode(t.label));
    wrap.appendChild(label);
  });
  parent.appendChild(wrap);
}

function renderBody(b) {
  const card = el('div', 'card' + (b.active ? ' active' : ''));
  const title = el('h2');
  title.appendChild(el('span', null, b.title));
  title.appendChild(el('span', 'temp', b.waterTemp + '° ' + (b.tempScale || '')));
  if (b.heaterPresent) {
    title.appendChild(el('span', 'heat' + (b.heaterActive ? ' on' : ''), '♨'));
  }
  const pwr = el('button', 'pwr' + (b.active ? ' on' : ''), '⏻');
  pwr.addEventListener('click', () => post('/api/circuit', {circuitId: b.powerCircuitId, on: !b.active}));
  title.appendChild(pwr);
  card.appendChild(title);

  renderToggles(card, b.toggles);

  const row = el('div', 'slider-row');
  const slider = el('input');
  slider.type = 'range';
  slider.min = b.heater.min;
  slider.max = b.heater.max;
  slider.value = b.heater.current;
  const label = el('span', null, b.heater.current + '°');
  slider.addEventListener('input', () => { label.textContent = slider.value + '°'; });
  slider.addEventListener('change', () => post('/api/heater/setpoint', {body: b.name, temp: Number(slider.value)}));
  const minBtn = el('button', null, String(b.heater.min));
  const maxBtn = el('button', null, String(b.heater.max));
  // Jump buttons only move the slider; its change handler owns the write.
  const jump = v => { slider.value = v; slider.dispatchEvent(new Event('change')); };
  minBtn.addEventListener('click', () => jump(b.heater.min));
  maxBtn.addEventListener('click', () => jump(b.heater.max));
  row.appendChild(minBtn);
  row.appendChild(slider);
  row.appendChild(maxBtn);
  row.appendChild(label);
  card.appendChild(row);

  const modes = el('div', 'modes');
  (b.heater.modes || []).forEach(m => {
    const btn = el('button', m.value === b.heater.modeCode ? 'active' : null, m.label);
    btn.addEventListener('click', () => post('/api/heater/mode', {body: b.name, mode: m.value}));
    modes.appendChild(btn);
  });
  card.appendChild(modes);
  return card;
}

function renderFeatures(f) {
  const card = el('div', 'card');
  card.appendChild(el('h2', null, 'Features'));
  renderToggles(card, f.toggles);
  return card;
}

function renderPumps(pumps) {
  const card = el('div', 'card');
  card.appendChild(el('h2', null, 'Pumps'));
  const table = el('table');
  const head = el('tr');
  ['Pump', 'Type', 'Status', 'Speed (RPM)', 'Power (Watts)'].forEach(h => head.appendChild(el('th', null, h)));
  table.appendChild(head);
  pumps.forEach(p => {
    const tr = el('tr');
    [p.name, p.type, p.status, p.rpm, p.watts].forEach(v => tr.appendChild(el('td', null, String(v))));
    table.appendChild(tr);
  });
  card.appendChild(table);
  return card;
}

function renderLights(l) {
  const card = el('div', 'card lights');
  const title = el('h2', null, 'Lights');
  const pwr = el('button', 'pwr' + (l.on ? ' on' : ''), '⏻');
  pwr.addEventListener('click', () => post('/api/lights', {command: l.on ? 0 : 1}));
  title.appendChild(pwr);
  card.appendChild(title);
  const addGroup = (caption, commands) => {
    card.appendChild(el('h3', null, caption));
    const wrap = el('div');
    commands.forEach(cmd => {
      const btn = el('button', null, cmd.label);
      btn.addEventListener('click', () => post('/api/lights', {command: cmd.command}));
      wrap.appendChild(btn);
    });
    card.appendChild(wrap);
  };
  addGroup('Scenes', l.scenes || []);
  addGroup('Constant Colors', l.colors || []);
  addGroup('Actions', l.actions || []);
  return card;
}

function render() {
  renderHeader(view.header);
  const main = document.getElementById('main');
  main.replaceChildren();
  if (view.lastWriteError) {
    const e = view.lastWriteError;
    main.appendChild(el('div', 'writeError', 'Last write failed (' + e.kind + '): ' + e.message));
  }
  if (view.alerts && view.alerts.length) {
    const wrap = el('div', 'alerts');
    view.alerts.forEach(a => wrap.appendChild(el('div', 'alert ' + a.severity, a.message)));
    main.appendChild(wrap);
  }
  (view.bodies || []).forEach(b => main.appendChild(renderBody(b)));
  if (view.features) main.appendChild(renderFeatures(view.features));
  if (view.pumps && view.pumps.length) main.appendChild(renderPumps(view.pumps));
  if (view.lights) main.appendChild(renderLights(view.lights));
}

async function refresh() {
  try {
    const resp = await fetch('/api/state');
    if (!resp.ok) return;
    view = await resp.json();
    render();
  } catch (err) {
    // keep the last rendered view on transient errors
  }
}

refresh();
setInterval(refresh, 2000);
</script>
</body>
</html>
`))
